// Package couchdb implements the gateway's typed client over the
// replicated document-store backend: list/get/save/append/delete of
// chunked note documents, plus a streaming change-feed consumer.
package couchdb

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/olifog/yamos/internal/chunk"
	"github.com/olifog/yamos/internal/logging"
	"github.com/olifog/yamos/internal/yerr"
)

// NoteDoc is the main document for a note. For doc_type "plain" the
// logical content is the in-order concatenation of its chunk data; for
// legacy "notes" it is the base64-decoded Data field on the doc itself.
type NoteDoc struct {
	ID       string      `json:"_id"`
	Rev      string      `json:"_rev,omitempty"`
	Path     string      `json:"path"`
	Data     string      `json:"data,omitempty"`
	Ctime    int64       `json:"ctime"`
	Mtime    int64       `json:"mtime"`
	Size     int64       `json:"size"`
	DocType  string      `json:"type"`
	Children []string    `json:"children"`
	Deleted  *bool       `json:"deleted,omitempty"`
	Eden     interface{} `json:"eden"`
}

// LeafDoc is a chunk document. Data is raw content, never base64.
type LeafDoc struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev,omitempty"`
	Data    string `json:"data"`
	DocType string `json:"type"`
}

type saveResponse struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

type allDocsRow struct {
	ID    string          `json:"id"`
	Value allDocsValue    `json:"value"`
	Doc   json.RawMessage `json:"doc"`
}

type allDocsValue struct {
	Rev     string `json:"rev"`
	Deleted bool   `json:"deleted"`
}

type allDocsResponse struct {
	Rows []allDocsRow `json:"rows"`
}

// Client is a typed HTTP client over one database of a document-store
// backend, authenticating with a pre-encoded HTTP Basic header.
type Client struct {
	httpClient *http.Client
	baseURL    string
	database   string
	authHeader string
}

// New builds a Client from backend connection parameters.
func New(baseURL, database, username, password string) *Client {
	creds := username + ":" + password
	authHeader := "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		database:   database,
		authHeader: authHeader,
	}
}

func (c *Client) docURL(id string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.database, url.PathEscape(id))
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authHeader)
	return req, nil
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

// TestConnection checks that the configured database is reachable and
// the credentials are accepted.
func (c *Client) TestConnection(ctx context.Context) error {
	u := fmt.Sprintf("%s/%s", c.baseURL, c.database)
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return yerr.Wrap(yerr.BackendError, "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return yerr.Wrap(yerr.BackendError, "connect to document store", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return yerr.New(yerr.BackendError, fmt.Sprintf("connect to document store: %d - %s", resp.StatusCode, readBody(resp)))
	}
	return nil
}

// ListNotes returns the ids of all live note documents, filtering out
// chunk docs (h:*), system docs (_*), tombstones, and soft-deleted notes.
func (c *Client) ListNotes(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/%s/_all_docs?include_docs=true", c.baseURL, c.database)
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, yerr.Wrap(yerr.BackendError, "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, yerr.Wrap(yerr.BackendError, "list documents", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, yerr.New(yerr.BackendError, fmt.Sprintf("list documents: %d - %s", resp.StatusCode, readBody(resp)))
	}

	var all allDocsResponse
	if err := json.NewDecoder(resp.Body).Decode(&all); err != nil {
		return nil, yerr.Wrap(yerr.FormatError, "decode _all_docs response", err)
	}

	var notes []string
	for _, row := range all.Rows {
		if strings.HasPrefix(row.ID, "h:") || strings.HasPrefix(row.ID, "_") {
			continue
		}
		if row.Value.Deleted {
			continue
		}
		if len(row.Doc) > 0 {
			var probe struct {
				Deleted bool `json:"deleted"`
			}
			_ = json.Unmarshal(row.Doc, &probe)
			if probe.Deleted {
				continue
			}
		}
		notes = append(notes, row.ID)
	}
	return notes, nil
}

// GetNote fetches a note document by id.
func (c *Client) GetNote(ctx context.Context, id string) (*NoteDoc, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.docURL(id), nil)
	if err != nil {
		return nil, yerr.Wrap(yerr.BackendError, "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, yerr.Wrap(yerr.BackendError, "get note", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, yerr.New(yerr.NotFound, "note not found: "+id)
	}
	if resp.StatusCode/100 != 2 {
		return nil, yerr.New(yerr.BackendError, fmt.Sprintf("get note: %d - %s", resp.StatusCode, readBody(resp)))
	}
	var doc NoteDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, yerr.Wrap(yerr.FormatError, "decode note document", err)
	}
	return &doc, nil
}

func (c *Client) getLeaf(ctx context.Context, chunkID string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.docURL(chunkID), nil)
	if err != nil {
		return "", yerr.Wrap(yerr.BackendError, "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", yerr.Wrap(yerr.BackendError, "get chunk "+chunkID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", yerr.New(yerr.BackendError, fmt.Sprintf("get chunk %s: %d - %s", chunkID, resp.StatusCode, readBody(resp)))
	}
	var leaf LeafDoc
	if err := json.NewDecoder(resp.Body).Decode(&leaf); err != nil {
		return "", yerr.Wrap(yerr.FormatError, "decode chunk document", err)
	}
	return leaf.Data, nil
}

// DecodeContent reassembles a note's logical content: for doc_type=plain
// it fetches each chunk by id in children order and concatenates; for
// legacy doc_type=notes it base64-decodes the note's own Data field.
// Unknown doc_type fails with a format error.
func (c *Client) DecodeContent(ctx context.Context, doc *NoteDoc) (string, error) {
	switch doc.DocType {
	case "notes":
		raw, err := base64.StdEncoding.DecodeString(doc.Data)
		if err != nil {
			return "", yerr.Wrap(yerr.FormatError, "base64-decode legacy note", err)
		}
		return string(raw), nil
	case "plain", "newnote":
		return chunk.Assemble(doc.Children, func(id string) (string, error) {
			return c.getLeaf(ctx, id)
		})
	default:
		return "", yerr.New(yerr.FormatError, "unknown doc_type: "+doc.DocType)
	}
}

func (c *Client) saveLeaf(ctx context.Context, chunkID, data string) error {
	leaf := LeafDoc{ID: chunkID, Data: data, DocType: "leaf"}
	body, err := json.Marshal(leaf)
	if err != nil {
		return yerr.Wrap(yerr.FormatError, "encode chunk", err)
	}
	req, err := c.newRequest(ctx, http.MethodPut, c.docURL(chunkID), strings.NewReader(string(body)))
	if err != nil {
		return yerr.Wrap(yerr.BackendError, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return yerr.Wrap(yerr.BackendError, "save chunk "+chunkID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return yerr.New(yerr.BackendError, fmt.Sprintf("save chunk %s: %d - %s", chunkID, resp.StatusCode, readBody(resp)))
	}
	return nil
}

// deleteLeaf best-effort deletes an old chunk. Failures are logged, never
// propagated: orphan chunks are tolerable garbage.
func (c *Client) deleteLeaf(ctx context.Context, chunkID string) {
	req, err := c.newRequest(ctx, http.MethodGet, c.docURL(chunkID), nil)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil || resp.StatusCode/100 != 2 {
		if resp != nil {
			resp.Body.Close()
		}
		if resp == nil || resp.StatusCode != http.StatusNotFound {
			logging.WithComponent("couchdb").Warn().Err(err).Str("chunk_id", chunkID).Msg("failed to fetch old chunk for deletion")
		}
		return
	}
	var leaf LeafDoc
	decodeErr := json.NewDecoder(resp.Body).Decode(&leaf)
	resp.Body.Close()
	if decodeErr != nil || leaf.Rev == "" {
		logging.WithComponent("couchdb").Warn().Err(decodeErr).Str("chunk_id", chunkID).Msg("failed to read old chunk revision")
		return
	}

	delURL := fmt.Sprintf("%s?rev=%s", c.docURL(chunkID), url.QueryEscape(leaf.Rev))
	delReq, err := c.newRequest(ctx, http.MethodDelete, delURL, nil)
	if err != nil {
		return
	}
	delResp, err := c.httpClient.Do(delReq)
	if err != nil {
		logging.WithComponent("couchdb").Warn().Err(err).Str("chunk_id", chunkID).Msg("failed to delete old chunk")
		return
	}
	defer delResp.Body.Close()
	if delResp.StatusCode/100 != 2 && delResp.StatusCode != http.StatusNotFound {
		logging.WithComponent("couchdb").Warn().Int("status", delResp.StatusCode).Str("chunk_id", chunkID).Msg("failed to delete old chunk")
	}
}

// SaveNote writes a note's content using the crash-safe ordering from the
// chunk codec: new chunks first, then the parent document (carrying the
// previous revision if updating), then best-effort deletion of old chunks.
func (c *Client) SaveNote(ctx context.Context, id, content string) error {
	existing, _ := c.GetNote(ctx, id) // nil if not found; ignore the error

	chunks, err := chunk.Split(content)
	if err != nil {
		return yerr.Wrap(yerr.FormatError, "split content into chunks", err)
	}

	childIDs := make([]string, len(chunks))
	for i, ch := range chunks {
		if err := c.saveLeaf(ctx, ch.ID, ch.Data); err != nil {
			return err
		}
		childIDs[i] = ch.ID
	}

	now := time.Now().UnixMilli()
	doc := NoteDoc{
		ID:       id,
		Path:     id,
		Ctime:    now,
		Mtime:    now,
		Size:     int64(len(content)),
		DocType:  "plain",
		Children: childIDs,
		Eden:     map[string]any{},
	}
	if existing != nil {
		doc.Rev = existing.Rev
		doc.Ctime = existing.Ctime
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return yerr.Wrap(yerr.FormatError, "encode note document", err)
	}
	req, err := c.newRequest(ctx, http.MethodPut, c.docURL(id), strings.NewReader(string(body)))
	if err != nil {
		return yerr.Wrap(yerr.BackendError, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return yerr.Wrap(yerr.BackendError, "save note", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return yerr.New(yerr.BackendError, fmt.Sprintf("save note: %d - %s", resp.StatusCode, readBody(resp)))
	}
	var saved saveResponse
	_ = json.NewDecoder(resp.Body).Decode(&saved)

	// Only delete old chunks after the parent doc save has succeeded.
	if existing != nil {
		for _, oldID := range existing.Children {
			c.deleteLeaf(ctx, oldID)
		}
	}
	return nil
}

// AppendToNote decodes the current content, appends a newline-separated
// block, and re-saves through SaveNote.
func (c *Client) AppendToNote(ctx context.Context, id, content string) error {
	existing, err := c.GetNote(ctx, id)
	if err != nil {
		return err
	}
	current, err := c.DecodeContent(ctx, existing)
	if err != nil {
		return err
	}
	return c.SaveNote(ctx, id, current+"\n"+content)
}

// DeleteNote soft-deletes by setting deleted=true and bumping mtime,
// retaining chunks and the revision chain.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	existing, err := c.GetNote(ctx, id)
	if err != nil {
		return err
	}
	deleted := true
	existing.Mtime = time.Now().UnixMilli()
	existing.Deleted = &deleted

	body, err := json.Marshal(existing)
	if err != nil {
		return yerr.Wrap(yerr.FormatError, "encode note document", err)
	}
	req, err := c.newRequest(ctx, http.MethodPut, c.docURL(id), strings.NewReader(string(body)))
	if err != nil {
		return yerr.Wrap(yerr.BackendError, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return yerr.Wrap(yerr.BackendError, "delete note", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return yerr.New(yerr.BackendError, fmt.Sprintf("delete note: %d - %s", resp.StatusCode, readBody(resp)))
	}
	return nil
}

// GetAllNotesWithContent loads every live note's decoded content, for the
// search index's initial load and full-resync recovery. It returns no
// seq watermark: the backend's _all_docs carries none, so callers resume
// the change feed from "now" after this.
func (c *Client) GetAllNotesWithContent(ctx context.Context) (map[string]NoteWithContent, error) {
	ids, err := c.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]NoteWithContent, len(ids))
	for _, id := range ids {
		doc, err := c.GetNote(ctx, id)
		if err != nil {
			logging.WithComponent("couchdb").Warn().Err(err).Str("id", id).Msg("skipping note during full load")
			continue
		}
		content, err := c.DecodeContent(ctx, doc)
		if err != nil {
			logging.WithComponent("couchdb").Warn().Err(err).Str("id", id).Msg("skipping note during full load")
			continue
		}
		out[id] = NoteWithContent{Path: id, Content: content, Mtime: doc.Mtime}
	}
	return out, nil
}

// NoteWithContent bundles a note's identity with its decoded content.
type NoteWithContent struct {
	Path    string
	Content string
	Mtime   int64
}

// ChangeEvent is one line of the backend's continuous _changes feed.
type ChangeEvent struct {
	Seq     string          `json:"seq"`
	ID      string          `json:"id"`
	Deleted bool            `json:"deleted"`
	Doc     json.RawMessage `json:"doc"`
}

// ErrSeqInvalid signals that the change feed rejected the requested
// "since" position because the underlying sequence was compacted.
var ErrSeqInvalid = yerr.New(yerr.BackendError, "change feed sequence invalid, full resync required")

// StreamChanges opens the continuous change feed starting at since and
// invokes onEvent for each newline-delimited change. It blocks until the
// stream ends, ctx is cancelled, or an error occurs. If the backend
// responds with 400 or a body mentioning "since", it returns ErrSeqInvalid
// so the caller can trigger a full resync.
func (c *Client) StreamChanges(ctx context.Context, since string, onEvent func(ChangeEvent) error) error {
	u := fmt.Sprintf("%s/%s/_changes?feed=continuous&include_docs=true&since=%s&heartbeat=30000",
		c.baseURL, c.database, url.QueryEscape(since))

	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return yerr.Wrap(yerr.BackendError, "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return yerr.Wrap(yerr.BackendError, "open changes feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body := readBody(resp)
		if resp.StatusCode == http.StatusBadRequest || strings.Contains(body, "since") {
			return ErrSeqInvalid
		}
		return yerr.New(yerr.BackendError, fmt.Sprintf("changes feed request failed: %d - %s", resp.StatusCode, body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event ChangeEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			logging.WithComponent("couchdb").Warn().Err(err).Msg("skipping unparseable change line")
			continue
		}
		if err := onEvent(event); err != nil {
			logging.WithComponent("couchdb").Warn().Err(err).Msg("error processing change")
		}
	}
	return scanner.Err()
}
