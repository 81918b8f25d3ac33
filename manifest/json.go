package manifest

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSON 序列化清单, 文件条目保持序号顺序.
func (m *Manifest) JSON() ([]byte, error) {
	var err error
	doc := []byte(`{}`)
	set := func(path string, v interface{}) {
		if err == nil {
			doc, err = sjson.SetBytes(doc, path, v)
		}
	}
	set("source", m.Source)
	set("block_size", m.BlockSize)
	set("blocks_read", m.BlocksRead)
	set("blocks_discarded", m.BlocksDiscarded)
	set("trailing_bytes", m.TrailingBytes)
	set("total_bytes", m.TotalBytes())
	set("signature", m.Signature)
	if err == nil {
		doc, err = sjson.SetRawBytes(doc, "files", []byte(`[]`))
	}
	for _, e := range m.Entries() {
		if err != nil {
			break
		}
		var item []byte
		item, err = entryJSON(e)
		if err == nil {
			doc, err = sjson.SetRawBytes(doc, "files.-1", item)
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "Manifest.JSON")
	}
	return doc, nil
}

func entryJSON(e *Entry) (item []byte, err error) {
	item = []byte(`{}`)
	fields := []struct {
		path string
		v    interface{}
	}{
		{"seq", e.Seq},
		{"name", e.Name},
		{"offset", e.Offset},
		{"size", e.Size},
		{"opened", e.Opened},
		{"xxhash", e.HashString()},
	}
	if e.Error != "" {
		fields = append(fields, struct {
			path string
			v    interface{}
		}{"error", e.Error})
	}
	for _, f := range fields {
		if item, err = sjson.SetBytes(item, f.path, f.v); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// Save 将清单写入 path.
func (m *Manifest) Save(path string) error {
	b, err := m.JSON()
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "Manifest.Save->WriteFile(...), path=%s", path)
	}
	return nil
}

// Load 从 path 读取清单.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Load->ReadFile(...), path=%s", path)
	}
	return Parse(b)
}

// Parse 解析 JSON 格式的清单.
func Parse(b []byte) (*Manifest, error) {
	if !gjson.ValidBytes(b) {
		return nil, errors.New("invalid manifest json")
	}
	root := gjson.ParseBytes(b)
	m := newManifest()
	m.Source = root.Get("source").String()
	if bs := root.Get("block_size"); bs.Exists() {
		m.BlockSize = int(bs.Int())
	}
	m.BlocksRead = root.Get("blocks_read").Int()
	m.BlocksDiscarded = root.Get("blocks_discarded").Int()
	m.TrailingBytes = int(root.Get("trailing_bytes").Int())
	m.Signature = root.Get("signature").String()

	var perr error
	root.Get("files").ForEach(func(_, v gjson.Result) bool {
		e := &Entry{
			Seq:    int(v.Get("seq").Int()),
			Name:   v.Get("name").String(),
			Offset: v.Get("offset").Int(),
			Size:   v.Get("size").Int(),
			Opened: v.Get("opened").Bool(),
			Error:  v.Get("error").String(),
		}
		if e.Name == "" {
			perr = errors.Errorf("manifest entry %v lacks a name", e.Seq)
			return false
		}
		if h := v.Get("xxhash").String(); h != "" {
			if e.Hash, perr = strconv.ParseUint(h, 16, 64); perr != nil {
				perr = errors.Wrapf(perr, "manifest entry %s", e.Name)
				return false
			}
		}
		m.entries.Set(e.Name, e)
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return m, nil
}
