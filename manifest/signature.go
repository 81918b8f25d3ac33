package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/lunixbochs/struc"
)

type _summary struct {
	BlockSize,
	Files,
	Written int `struc:"int32"`
	BlocksRead, TotalBytes int64
}

// Signature 计算清单签名: 对打包后的摘要与每个条目的(序号, 大小, 哈希)做 sha256.
// 同一源镜像的两次扫描得到相同签名.
func Signature(m *Manifest) (string, error) {
	written := m.opened()
	sum := _summary{
		BlockSize:  m.BlockSize,
		Files:      m.Len(),
		Written:    len(written),
		BlocksRead: m.BlocksRead,
		TotalBytes: m.TotalBytes(),
	}
	b := &bytes.Buffer{}
	if err := struc.Pack(b, &sum); err != nil {
		return "", err
	}
	s256 := sha256.New()
	s256.Write(b.Bytes())
	var rec [24]byte
	for _, e := range written {
		binary.BigEndian.PutUint64(rec[0:], uint64(e.Seq))
		binary.BigEndian.PutUint64(rec[8:], uint64(e.Size))
		binary.BigEndian.PutUint64(rec[16:], e.Hash)
		s256.Write(rec[:])
	}
	return hex.EncodeToString(s256.Sum(nil)), nil
}
