package kvstore

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
)

var recordMagic = [4]byte{'H', 'K', 'V', '2'}

// magic | crc32 | key length u16 | value length u32
const recordHeaderLen = 14

// MaxKeyLen is the longest key a record can hold.
const MaxKeyLen = math.MaxUint16

var errCorruptRecord = errors.New("kvstore: corrupt record")

// encodeRecord frames key and value. The checksum covers both.
func encodeRecord(key string, value []byte) []byte {
	buf := make([]byte, recordHeaderLen+len(key)+len(value))
	copy(buf, recordMagic[:])
	binary.BigEndian.PutUint16(buf[8:], uint16(len(key)))
	binary.BigEndian.PutUint32(buf[10:], uint32(len(value)))
	copy(buf[recordHeaderLen:], key)
	copy(buf[recordHeaderLen+len(key):], value)
	binary.BigEndian.PutUint32(buf[4:], crc32.ChecksumIEEE(buf[recordHeaderLen:]))
	return buf
}

func decodeRecord(buf []byte) (string, []byte, error) {
	if len(buf) < recordHeaderLen || [4]byte(buf[:4]) != recordMagic {
		return "", nil, errCorruptRecord
	}
	sum := binary.BigEndian.Uint32(buf[4:])
	kn := int(binary.BigEndian.Uint16(buf[8:]))
	vn := uint64(binary.BigEndian.Uint32(buf[10:]))
	body := buf[recordHeaderLen:]
	if kn == 0 || uint64(kn)+vn != uint64(len(body)) || crc32.ChecksumIEEE(body) != sum {
		return "", nil, errCorruptRecord
	}
	return string(body[:kn]), body[kn:], nil
}
