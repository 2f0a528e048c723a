package reader

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"errors"
	"fmt"
	"testing"

	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/internal/testpdf"
)

var testFileID = []byte("0123456789abcdef")

// encryptedDoc builds a one-page document whose content stream is
// encrypted with encryptContent. encDict is the /Encrypt dictionary body.
func encryptedDoc(encDict string, encryptContent func(num int, data []byte) []byte) []byte {
	b := testpdf.New()
	tree := b.Reserve()
	content := b.Reserve()
	b.SetStream(content, "", encryptContent(content, []byte("0 0 1 rg 0 0 10 10 re f")))
	page := b.Add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 100 100] /Contents %d 0 R >>", tree, content))
	b.Set(tree, fmt.Sprintf("<< /Type /Pages /Kids [%d 0 R] /Count 1 >>", page))
	root := b.Add(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree))
	enc := b.Add(encDict)
	b.Trailer = fmt.Sprintf("/Encrypt %d 0 R /ID [<%x> <%x>] ", enc, testFileID, testFileID)
	return b.Bytes(root, testpdf.Classic)
}

func hexString(b []byte) string { return fmt.Sprintf("<%x>", b) }

func TestRC4EmptyUserPassword(t *testing.T) {
	for _, r := range []int{2, 3} {
		t.Run(fmt.Sprintf("R%d", r), func(t *testing.T) {
			keyLen := 5
			v := 1
			if r == 3 {
				keyLen, v = 16, 2
			}
			ownerSum := md5.Sum(padPassword([]byte("owner")))
			o := rc4Bytes(ownerSum[:keyLen], padPassword(nil))
			p := int32(-44)
			key := computeKey(nil, o, p, testFileID, keyLen, r, true)
			u := userCheck(key, testFileID, r)
			if len(u) < 32 {
				u = append(u, make([]byte, 32-len(u))...)
			}
			h := &securityHandler{key: key}

			enc := fmt.Sprintf("<< /Filter /Standard /V %d /R %d /Length %d /O %s /U %s /P %d >>",
				v, r, keyLen*8, hexString(o), hexString(u), p)
			doc := encryptedDoc(enc, func(num int, data []byte) []byte {
				return rc4Bytes(h.objectKey(num, 0, cryptRC4), data)
			})

			rd, err := NewReader(doc)
			if err != nil {
				t.Fatalf("NewReader failed: %v", err)
			}
			if !rd.Encrypted() {
				t.Error("expected Encrypted() to be true")
			}
			if got := pageContent(t, rd, 0); got != "0 0 1 rg 0 0 10 10 re f" {
				t.Errorf("unexpected decrypted content %q", got)
			}
		})
	}
}

func aesEncrypt(key, iv, data []byte) []byte {
	pad := aes.BlockSize - len(data)%aes.BlockSize
	plain := append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(pad)}, pad)...)
	block, _ := aes.NewCipher(key)
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plain)
	return append(append([]byte(nil), iv...), out...)
}

func TestAESV2(t *testing.T) {
	o := bytes.Repeat([]byte{0x11}, 32)
	p := int32(-3904)
	key := computeKey(nil, o, p, testFileID, 16, 4, true)
	u := append(userCheck(key, testFileID, 4), make([]byte, 16)...)
	h := &securityHandler{key: key}

	enc := fmt.Sprintf("<< /Filter /Standard /V 4 /R 4 /Length 128 /CF << /StdCF << /CFM /AESV2 /Length 16 >> >> /StmF /StdCF /StrF /StdCF /O %s /U %s /P %d >>",
		hexString(o), hexString(u), p)
	doc := encryptedDoc(enc, func(num int, data []byte) []byte {
		return aesEncrypt(h.objectKey(num, 0, cryptAESV2), bytes.Repeat([]byte{7}, 16), data)
	})

	rd, err := NewReader(doc)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	if got := pageContent(t, rd, 0); got != "0 0 1 rg 0 0 10 10 re f" {
		t.Errorf("unexpected decrypted content %q", got)
	}
}

func TestAESV3(t *testing.T) {
	for _, r := range []int{5, 6} {
		t.Run(fmt.Sprintf("R%d", r), func(t *testing.T) {
			fileKey := bytes.Repeat([]byte{0x42}, 32)
			vsalt := []byte("validsal")
			ksalt := []byte("keysalt!")
			u := append(append(hashR6(nil, vsalt, nil, r), vsalt...), ksalt...)

			block, _ := aes.NewCipher(hashR6(nil, ksalt, nil, r))
			ue := make([]byte, 32)
			cipher.NewCBCEncrypter(block, make([]byte, 16)).CryptBlocks(ue, fileKey)

			enc := fmt.Sprintf("<< /Filter /Standard /V 5 /R %d /Length 256 /CF << /StdCF << /CFM /AESV3 /Length 32 >> >> /StmF /StdCF /StrF /StdCF /O %s /U %s /OE %s /UE %s /P -4 >>",
				r, hexString(bytes.Repeat([]byte{0}, 48)), hexString(u), hexString(make([]byte, 32)), hexString(ue))
			doc := encryptedDoc(enc, func(num int, data []byte) []byte {
				return aesEncrypt(fileKey, bytes.Repeat([]byte{9}, 16), data)
			})

			rd, err := NewReader(doc)
			if err != nil {
				t.Fatalf("NewReader failed: %v", err)
			}
			if got := pageContent(t, rd, 0); got != "0 0 1 rg 0 0 10 10 re f" {
				t.Errorf("unexpected decrypted content %q", got)
			}
		})
	}
}

func TestEncryptedNeedsPassword(t *testing.T) {
	tests := []struct {
		name string
		enc  string
	}{
		{
			name: "wrong user entry",
			enc: fmt.Sprintf("<< /Filter /Standard /V 1 /R 2 /O %s /U %s /P -4 >>",
				hexString(bytes.Repeat([]byte{1}, 32)), hexString(bytes.Repeat([]byte{2}, 32))),
		},
		{
			name: "public key handler",
			enc:  "<< /Filter /Adobe.PubSec /V 4 /R 4 >>",
		},
		{
			name: "unknown version",
			enc:  "<< /Filter /Standard /V 3 /R 3 >>",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := encryptedDoc(tc.enc, func(_ int, data []byte) []byte { return data })
			if _, err := NewReader(doc); !errors.Is(err, ErrEncrypted) {
				t.Errorf("expected ErrEncrypted, got %v", err)
			}
		})
	}
}

func TestObjectKeyLength(t *testing.T) {
	h := &securityHandler{key: []byte{1, 2, 3, 4, 5}}
	if got := len(h.objectKey(7, 0, cryptRC4)); got != 10 {
		t.Errorf("40-bit key: expected 10-byte object key, got %d", got)
	}
	h.key = bytes.Repeat([]byte{1}, 16)
	if got := len(h.objectKey(7, 0, cryptAESV2)); got != 16 {
		t.Errorf("128-bit key: expected 16-byte object key, got %d", got)
	}
	h.key = bytes.Repeat([]byte{1}, 32)
	if got := h.objectKey(7, 0, cryptAESV3); !bytes.Equal(got, h.key) {
		t.Error("AESV3 must use the file key")
	}
}

func TestDecryptSkipsXRefStreams(t *testing.T) {
	h := &securityHandler{key: []byte{1, 2, 3, 4, 5}, stmMethod: cryptRC4, strMethod: cryptRC4, encryptMeta: true}
	xref := &core.Stream{Dict: core.Dict{"Type": core.Name("XRef")}, Data: []byte("raw")}
	out := h.decrypt(xref, 3, 0).(*core.Stream)
	if string(out.Data) != "raw" {
		t.Errorf("xref stream data changed: %q", out.Data)
	}
	s := h.decrypt(core.String("abc"), 3, 0).(core.String)
	if s == "abc" {
		t.Error("strings must be decrypted")
	}
	if back := rc4Bytes(h.objectKey(3, 0, cryptRC4), []byte(s)); string(back) != "abc" {
		t.Errorf("RC4 round trip failed: %q", back)
	}
}
