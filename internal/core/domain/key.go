package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Key identifies an (input tree, command, arguments) triple.
// It is the lowercase-hex encoding of a sha256 digest.
type Key string

// KeyLength is the length of a hex-encoded key.
const KeyLength = 2 * sha256.Size

// String returns the key as a string.
func (k Key) String() string {
	return string(k)
}

// Valid reports whether the key is a well-formed hex digest.
func (k Key) Valid() bool {
	if len(k) != KeyLength {
		return false
	}
	_, err := hex.DecodeString(string(k))
	return err == nil
}

// Prefix returns the two-character shard prefix used for on-disk addressing.
// Bounds per-directory entry counts in the store.
func (k Key) Prefix() string {
	return string(k[:2])
}

// Fingerprint computes the cache key for a manifest plus a command invocation.
//
// It is a pure function of its inputs: the same manifest in the same order,
// the same command name and the same argument list produce a byte-identical
// key across runs and machines. Every variable-length field is length-prefixed
// before hashing so that no concatenation of fields can alias a different set
// of inputs to the same byte stream.
func Fingerprint(m Manifest, command string, args []string) Key {
	h := sha256.New()
	writeManifest(h, m)
	writeField(h, []byte(command))
	writeUvarint(h, uint64(len(args)))
	for _, arg := range args {
		writeField(h, []byte(arg))
	}
	return Key(hex.EncodeToString(h.Sum(nil)))
}

// ManifestDigest computes the digest of the manifest alone, without the
// command. Recorded in the sidecar record for diagnosability.
func ManifestDigest(m Manifest) string {
	h := sha256.New()
	writeManifest(h, m)
	return hex.EncodeToString(h.Sum(nil))
}

func writeManifest(h hash.Hash, m Manifest) {
	writeUvarint(h, uint64(len(m)))
	for _, e := range m {
		h.Write([]byte{e.Kind.tag()})
		writeField(h, []byte(e.Path))
		switch e.Kind {
		case KindSymlink:
			writeField(h, []byte(e.Target))
		default:
			writeField(h, []byte(e.Digest))
		}
		if e.Executable {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
}

func writeField(h hash.Hash, b []byte) {
	writeUvarint(h, uint64(len(b)))
	h.Write(b)
}

func writeUvarint(h hash.Hash, v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	h.Write(buf[:n])
}
