package encoding

import (
	"errors"
	"strings"
	"testing"
)

type fieldProps struct {
	SessionID string `msgpack:"s"`
	CountryID int    `msgpack:"c,omitempty"`
	Label     string `msgpack:"-"`
}

func TestNewEncoder(t *testing.T) {
	if _, err := NewEncoder([]byte("short")); err != nil {
		t.Fatalf("NewEncoder with short key failed: %v", err)
	}
	if _, err := NewEncoder([]byte("this-is-a-32-byte-key-for-aes!!!")); err != nil {
		t.Fatalf("NewEncoder with 32-byte key failed: %v", err)
	}
	if _, err := NewEncoder(nil); err == nil {
		t.Fatal("NewEncoder with empty key should fail")
	}
}

func TestSignedRoundTrip(t *testing.T) {
	enc, err := NewEncoder([]byte("test-key"))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	original := fieldProps{SessionID: "abc", CountryID: 2, Label: "dropped"}
	token, err := enc.Encode(original, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(token, ".") {
		t.Fatalf("signed token %q has no signature separator", token)
	}

	var decoded fieldProps
	if err := enc.Decode(token, false, &decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.SessionID != "abc" || decoded.CountryID != 2 {
		t.Errorf("decoded = %+v, want session abc country 2", decoded)
	}
	if decoded.Label != "" {
		t.Errorf("Label = %q, excluded fields must not travel", decoded.Label)
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))

	token, err := enc.Encode(fieldProps{SessionID: "secret"}, true)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Contains(token, ".") {
		t.Errorf("encrypted token %q looks signed", token)
	}

	var decoded fieldProps
	if err := enc.Decode(token, true, &decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.SessionID != "secret" {
		t.Errorf("SessionID = %q, want secret", decoded.SessionID)
	}
}

func TestTamperedSignature(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))
	token, _ := enc.Encode(fieldProps{SessionID: "abc"}, false)

	other, _ := NewEncoder([]byte("other-key"))
	var decoded fieldProps
	err := other.Decode(token, false, &decoded)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("Decode with wrong key = %v, want ErrSignatureInvalid", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	enc, _ := NewEncoder([]byte("test-key"))

	tests := []struct {
		name      string
		token     string
		sensitive bool
		want      error
	}{
		{"missing signature", "abc", false, ErrInvalidFormat},
		{"bad base64", "!!!.???", false, ErrInvalidFormat},
		{"short ciphertext", "YWJj", true, ErrInvalidFormat},
		{"garbage ciphertext", strings.Repeat("A", 64), true, ErrDecryptFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var decoded fieldProps
			err := enc.Decode(tt.token, tt.sensitive, &decoded)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}
