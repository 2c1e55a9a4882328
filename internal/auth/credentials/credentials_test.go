package credentials

import (
	"testing"

	"github.com/olifog/yamos/internal/auth/clients"
)

func TestValidateStaticCredentials(t *testing.T) {
	v := New(clients.New(), "static-client", "static-secret")
	if err := v.Validate("static-client", "static-secret"); err != nil {
		t.Errorf("expected static credentials to validate, got %v", err)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	v := New(clients.New(), "static-client", "static-secret")
	if err := v.Validate("static-client", "wrong"); err == nil {
		t.Error("expected wrong secret to be rejected")
	}
}

func TestValidateRejectsWrongClientID(t *testing.T) {
	v := New(clients.New(), "static-client", "static-secret")
	if err := v.Validate("someone-else", "static-secret"); err == nil {
		t.Error("expected wrong client id to be rejected")
	}
}

func TestValidateDynamicallyRegisteredClient(t *testing.T) {
	reg := clients.New()
	reg.Register(clients.Client{ID: "dyn-1", Secret: "dyn-secret"})
	v := New(reg, "static-client", "static-secret")

	if err := v.Validate("dyn-1", "dyn-secret"); err != nil {
		t.Errorf("expected dynamic client to validate, got %v", err)
	}
	if err := v.Validate("dyn-1", "wrong-secret"); err == nil {
		t.Error("expected wrong dynamic secret to be rejected")
	}
}

func TestValidateErrorIsOpaque(t *testing.T) {
	v := New(clients.New(), "static-client", "static-secret")
	err1 := v.Validate("static-client", "wrong")
	err2 := v.Validate("wrong-id", "static-secret")
	if err1 == nil || err2 == nil {
		t.Fatal("expected both to fail")
	}
	if err1.Error() != err2.Error() {
		t.Errorf("expected identical opaque error messages, got %q and %q", err1.Error(), err2.Error())
	}
}
