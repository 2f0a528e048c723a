package reader

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sbkohel/pdf-dedupe/core"
)

type cryptMethod int

const (
	cryptNone cryptMethod = iota
	cryptRC4
	cryptAESV2
	cryptAESV3
)

// securityHandler is the Standard security handler opened with the empty
// user password.
type securityHandler struct {
	r           int
	key         []byte
	stmMethod   cryptMethod
	strMethod   cryptMethod
	encryptMeta bool
}

var padding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// newSecurityHandler authenticates the empty password against an /Encrypt
// dictionary. Failures wrap ErrEncrypted.
func newSecurityHandler(enc core.Dict, fileID []byte) (*securityHandler, error) {
	if filter, _ := enc.GetName("Filter"); filter != "Standard" {
		return nil, fmt.Errorf("%w: unsupported security handler %q", ErrEncrypted, filter)
	}
	v, _ := enc.GetInt("V")
	r, _ := enc.GetInt("R")
	h := &securityHandler{r: r, encryptMeta: true}
	if b, ok := enc.GetBool("EncryptMetadata"); ok {
		h.encryptMeta = b
	}

	switch {
	case v <= 2:
		h.stmMethod, h.strMethod = cryptRC4, cryptRC4
	case v == 4 || v == 5:
		h.stmMethod = cryptFilterMethod(enc, "StmF")
		h.strMethod = cryptFilterMethod(enc, "StrF")
	default:
		return nil, fmt.Errorf("%w: unsupported encryption version %d", ErrEncrypted, v)
	}

	o, _ := enc.GetString("O")
	u, _ := enc.GetString("U")
	var err error
	switch {
	case r >= 2 && r <= 4:
		keyLen := 5
		if v >= 2 {
			if bits, ok := enc.GetInt("Length"); ok && bits >= 40 && bits <= 128 && bits%8 == 0 {
				keyLen = bits / 8
			} else if v == 4 {
				keyLen = 16
			}
		}
		p, _ := enc.GetInt("P")
		h.key, err = legacyKey([]byte(o), []byte(u), int32(p), fileID, keyLen, r, h.encryptMeta)
	case r == 5 || r == 6:
		oe, _ := enc.GetString("OE")
		ue, _ := enc.GetString("UE")
		h.key, err = aes256Key([]byte(o), []byte(u), []byte(oe), []byte(ue), r)
	default:
		err = fmt.Errorf("unsupported revision %d", r)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncrypted, err)
	}
	return h, nil
}

// cryptFilterMethod resolves /StmF or /StrF through /CF.
func cryptFilterMethod(enc core.Dict, key string) cryptMethod {
	name, ok := enc.GetName(key)
	if !ok || name == "Identity" {
		return cryptNone
	}
	cf, _ := enc.GetDict("CF")
	filter, _ := cf.GetDict(string(name))
	switch m, _ := filter.GetName("CFM"); m {
	case "V2":
		return cryptRC4
	case "AESV2":
		return cryptAESV2
	case "AESV3":
		return cryptAESV3
	case "None":
		return cryptNone
	}
	return cryptRC4
}

func padPassword(pwd []byte) []byte {
	out := make([]byte, 32)
	n := copy(out, pwd)
	copy(out[n:], padding)
	return out
}

// computeKey is algorithm 2 of the Standard handler.
func computeKey(pwd, o []byte, p int32, fileID []byte, keyLen, r int, encryptMeta bool) []byte {
	h := md5.New()
	h.Write(padPassword(pwd))
	h.Write(o)
	var pb [4]byte
	binary.LittleEndian.PutUint32(pb[:], uint32(p))
	h.Write(pb[:])
	h.Write(fileID)
	if r >= 4 && !encryptMeta {
		h.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}
	sum := h.Sum(nil)
	if r >= 3 {
		for i := 0; i < 50; i++ {
			s := md5.Sum(sum[:keyLen])
			sum = s[:]
		}
	}
	return sum[:keyLen]
}

// userCheck computes the expected /U value for key (algorithms 4 and 5).
func userCheck(key, fileID []byte, r int) []byte {
	if r == 2 {
		return rc4Bytes(key, padding)
	}
	h := md5.New()
	h.Write(padding)
	h.Write(fileID)
	val := rc4Bytes(key, h.Sum(nil))
	val = rc4Rounds(key, val, 1, 19)
	return val
}

// rc4Rounds encrypts data with key XOR i for i from first to last
// (counting down when first > last).
func rc4Rounds(key, data []byte, first, last int) []byte {
	step := 1
	if first > last {
		step = -1
	}
	tmp := make([]byte, len(key))
	for i := first; ; i += step {
		for j := range key {
			tmp[j] = key[j] ^ byte(i)
		}
		data = rc4Bytes(tmp, data)
		if i == last {
			return data
		}
	}
}

func legacyKey(o, u []byte, p int32, fileID []byte, keyLen, r int, encryptMeta bool) ([]byte, error) {
	cmpLen := 32
	if r >= 3 {
		cmpLen = 16
	}
	if len(u) < cmpLen {
		return nil, errors.New("/U entry too short")
	}

	key := computeKey(nil, o, p, fileID, keyLen, r, encryptMeta)
	if bytes.Equal(userCheck(key, fileID, r)[:cmpLen], u[:cmpLen]) {
		return key, nil
	}

	// The empty string may be the owner password: recover the user
	// password from /O (algorithm 7).
	sum := md5.Sum(padPassword(nil))
	ownerKey := sum[:]
	if r >= 3 {
		for i := 0; i < 50; i++ {
			s := md5.Sum(ownerKey)
			ownerKey = s[:]
		}
	}
	ownerKey = ownerKey[:keyLen]
	var userPwd []byte
	if r == 2 {
		userPwd = rc4Bytes(ownerKey, o)
	} else {
		userPwd = rc4Rounds(ownerKey, append([]byte(nil), o...), 19, 0)
	}
	key = computeKey(userPwd, o, p, fileID, keyLen, r, encryptMeta)
	if bytes.Equal(userCheck(key, fileID, r)[:cmpLen], u[:cmpLen]) {
		return key, nil
	}
	return nil, errors.New("a password is required")
}

// hashR6 is algorithm 2.B; revision 5 uses a single SHA-256.
func hashR6(pwd, salt, udata []byte, r int) []byte {
	h := sha256.New()
	h.Write(pwd)
	h.Write(salt)
	h.Write(udata)
	k := h.Sum(nil)
	if r == 5 {
		return k
	}
	for i := 0; ; {
		seq := make([]byte, 0, len(pwd)+len(k)+len(udata))
		seq = append(seq, pwd...)
		seq = append(seq, k...)
		seq = append(seq, udata...)
		k1 := bytes.Repeat(seq, 64)

		block, _ := aes.NewCipher(k[:16])
		e := make([]byte, len(k1))
		cipher.NewCBCEncrypter(block, k[16:32]).CryptBlocks(e, k1)

		var mod int
		for _, b := range e[:16] {
			mod += int(b)
		}
		switch mod % 3 {
		case 0:
			s := sha256.Sum256(e)
			k = s[:]
		case 1:
			s := sha512.Sum384(e)
			k = s[:]
		case 2:
			s := sha512.Sum512(e)
			k = s[:]
		}
		i++
		if i >= 64 && int(e[len(e)-1]) <= i-32 {
			break
		}
	}
	return k[:32]
}

func aes256Key(o, u, oe, ue []byte, r int) ([]byte, error) {
	if len(u) >= 48 && len(ue) >= 32 {
		if bytes.Equal(hashR6(nil, u[32:40], nil, r), u[:32]) {
			return aesNoIV(hashR6(nil, u[40:48], nil, r), ue[:32])
		}
	}
	if len(o) >= 48 && len(oe) >= 32 && len(u) >= 48 {
		if bytes.Equal(hashR6(nil, o[32:40], u[:48], r), o[:32]) {
			return aesNoIV(hashR6(nil, o[40:48], u[:48], r), oe[:32])
		}
	}
	return nil, errors.New("a password is required")
}

func aesNoIV(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, data)
	return out, nil
}

func rc4Bytes(key, data []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return append([]byte(nil), data...)
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

// objectKey derives the key of one object (algorithm 1). AESV3 uses the
// file key directly.
func (h *securityHandler) objectKey(num, gen int, method cryptMethod) []byte {
	if method == cryptAESV3 {
		return h.key
	}
	buf := make([]byte, 0, len(h.key)+9)
	buf = append(buf, h.key...)
	buf = append(buf, byte(num), byte(num>>8), byte(num>>16), byte(gen), byte(gen>>8))
	if method == cryptAESV2 {
		buf = append(buf, "sAlT"...)
	}
	sum := md5.Sum(buf)
	n := len(h.key) + 5
	if n > 16 {
		n = 16
	}
	return sum[:n]
}

// decryptBytes decrypts one string or stream body. Data that cannot be
// decrypted is returned unchanged.
func (h *securityHandler) decryptBytes(data []byte, num, gen int, method cryptMethod) []byte {
	switch method {
	case cryptNone:
		return data
	case cryptRC4:
		return rc4Bytes(h.objectKey(num, gen, method), data)
	}
	block, err := aes.NewCipher(h.objectKey(num, gen, method))
	if err != nil || len(data) < aes.BlockSize {
		return data
	}
	iv, body := data[:aes.BlockSize], data[aes.BlockSize:]
	body = body[:len(body)-len(body)%aes.BlockSize]
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)
	if n := len(out); n > 0 {
		if pad := int(out[n-1]); pad >= 1 && pad <= aes.BlockSize && pad <= n {
			out = out[:n-pad]
		}
	}
	return out
}

// decrypt returns obj with its strings and stream data decrypted.
func (h *securityHandler) decrypt(obj core.Object, num, gen int) core.Object {
	switch v := obj.(type) {
	case core.String:
		return core.String(h.decryptBytes([]byte(v), num, gen, h.strMethod))
	case core.Array:
		out := make(core.Array, len(v))
		for i, o := range v {
			out[i] = h.decrypt(o, num, gen)
		}
		return out
	case core.Dict:
		return h.decryptDict(v, num, gen)
	case *core.Stream:
		dict := h.decryptDict(v.Dict, num, gen)
		typ, _ := v.Dict.GetName("Type")
		if typ == "XRef" || (typ == "Metadata" && !h.encryptMeta) || hasIdentityCrypt(v) {
			return &core.Stream{Dict: dict, Data: v.Data}
		}
		return &core.Stream{Dict: dict, Data: h.decryptBytes(v.Data, num, gen, h.stmMethod)}
	}
	return obj
}

func (h *securityHandler) decryptDict(d core.Dict, num, gen int) core.Dict {
	out := make(core.Dict, len(d))
	for k, o := range d {
		out[k] = h.decrypt(o, num, gen)
	}
	return out
}

// hasIdentityCrypt reports a /Crypt filter that selects the Identity
// filter, which leaves the stream unencrypted.
func hasIdentityCrypt(s *core.Stream) bool {
	names, params := s.Filters()
	for i, n := range names {
		if n != "Crypt" {
			continue
		}
		if name, ok := params[i].GetName("Name"); !ok || name == "Identity" {
			return true
		}
	}
	return false
}
