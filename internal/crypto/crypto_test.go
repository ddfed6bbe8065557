package crypto

import (
	"strings"
	"sync"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	return key
}

func TestNewEncryptorRejectsBadKeys(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		if _, err := NewEncryptor(make([]byte, size)); err != ErrInvalidKey {
			t.Errorf("NewEncryptor with %d-byte key: err = %v, want ErrInvalidKey", size, err)
		}
	}
	if _, err := NewEncryptor(make([]byte, 32)); err != nil {
		t.Errorf("NewEncryptor with 32-byte key failed: %v", err)
	}
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	enc, err := NewEncryptor(testKey(t))
	if err != nil {
		t.Fatalf("NewEncryptor failed: %v", err)
	}

	plaintexts := []string{
		"",
		"access-token-abc123",
		"refresh-token-with-unicode-désolé",
		strings.Repeat("long", 1024),
	}
	for _, pt := range plaintexts {
		ct, err := enc.Encrypt(pt)
		if err != nil {
			t.Fatalf("Encrypt(%q) failed: %v", pt, err)
		}
		if pt == "" && ct != "" {
			t.Error("empty plaintext should encrypt to empty string")
		}
		got, err := enc.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if got != pt {
			t.Errorf("round trip changed plaintext (len %d)", len(pt))
		}
	}
}

func TestEncryptProducesUniqueCiphertexts(t *testing.T) {
	enc, _ := NewEncryptor(testKey(t))

	a, err := enc.Encrypt("same-token")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, err := enc.Encrypt("same-token")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext should differ (random nonce)")
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	enc1, _ := NewEncryptor(testKey(t))
	enc2, _ := NewEncryptor(testKey(t))

	ct, err := enc1.Encrypt("device-token")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if _, err := enc2.Decrypt(ct); err == nil {
		t.Error("decryption with the wrong key should fail")
	}
}

func TestDecryptInvalidInput(t *testing.T) {
	enc, _ := NewEncryptor(testKey(t))

	for _, ct := range []string{"not base64!!!", "YWJj", "AAAA"} {
		if _, err := enc.Decrypt(ct); err == nil {
			t.Errorf("Decrypt(%q) should fail", ct)
		}
	}
}

func TestConcurrentEncryptDecrypt(t *testing.T) {
	enc, _ := NewEncryptor(testKey(t))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ct, err := enc.Encrypt("concurrent-token")
				if err != nil {
					t.Error("Encrypt failed")
					return
				}
				pt, err := enc.Decrypt(ct)
				if err != nil || pt != "concurrent-token" {
					t.Error("Decrypt failed")
					return
				}
			}
		}()
	}
	wg.Wait()
}
