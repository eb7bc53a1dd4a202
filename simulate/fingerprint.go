package simulate

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strconv"
)

// maxCanonDepth bounds nesting of JSON structures during canonicalization.
const maxCanonDepth = 64

// Fingerprint returns a deterministic hex digest of a value or Element.
// Sets are encoded in sorted order so that insertion order does not matter.
func Fingerprint(v any) string {
	w := newCanonWriter()
	if e, ok := v.(Element); ok {
		encodeElement(e, w, 0)
	} else {
		encodeValue(v, w, 0)
	}
	sum := sha256.Sum256(w.Bytes())
	return hex.EncodeToString(sum[:])
}

// canonWriter is a simple buffer for building canonical representations
type canonWriter struct {
	buf []byte
}

func newCanonWriter() *canonWriter {
	return &canonWriter{buf: make([]byte, 0, 256)}
}

func (w *canonWriter) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *canonWriter) WriteString(s string) {
	w.buf = append(w.buf, s...)
}

func (w *canonWriter) Bytes() []byte {
	return w.buf
}

// encodeSorted writes each part canonicalized on its own, sorted.
func encodeSorted(w *canonWriter, parts []string) {
	sort.Strings(parts)
	w.WriteByte('[')
	for i, p := range parts {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteString(p)
	}
	w.WriteByte(']')
}

func encodeElement(e Element, w *canonWriter, depth int) {
	w.WriteString("E{t:")
	names := make([]string, 0, len(e.types))
	for _, t := range e.types {
		names = append(names, strconv.Quote(t.Type)+"="+strconv.Quote(t.Name))
	}
	encodeSorted(w, names)
	w.WriteString(",v:")
	vals := make([]string, 0, len(e.values))
	for _, v := range e.values {
		sub := newCanonWriter()
		encodeValue(v, sub, depth+1)
		vals = append(vals, string(sub.Bytes()))
	}
	encodeSorted(w, vals)
	w.WriteByte('}')
}

func encodeValue(v any, w *canonWriter, depth int) {
	if depth > maxCanonDepth {
		w.WriteString("{\"$max_depth\":true}")
		return
	}
	switch x := v.(type) {
	case nil:
		w.WriteString("nil")
	case Null:
		w.WriteString("null")
	case int32:
		w.WriteString("i:" + strconv.FormatInt(int64(x), 10))
	case int64:
		w.WriteString("l:" + strconv.FormatInt(x, 10))
	case float32:
		w.WriteString("f:" + strconv.FormatUint(uint64(math.Float32bits(x)), 16))
	case float64:
		w.WriteString("d:" + strconv.FormatUint(math.Float64bits(x), 16))
	case string:
		w.WriteString("s:" + strconv.Quote(x))
	case StatusCode:
		w.WriteString("status:" + strconv.Itoa(int(x)))
	case *HttpResponse:
		w.WriteString("R{s:")
		codes := make([]string, 0, len(x.Statuses))
		for _, s := range x.Statuses {
			codes = append(codes, strconv.Itoa(s))
		}
		encodeSorted(w, codes)
		w.WriteString(",h:")
		encodeSorted(w, quoteAll(x.Headers))
		w.WriteString(",c:")
		encodeSorted(w, quoteAll(x.ContentTypes))
		w.WriteString(",e:")
		entities := make([]string, 0, len(x.EntityTypes))
		for _, t := range x.EntityTypes {
			entities = append(entities, strconv.Quote(t.Name))
		}
		encodeSorted(w, entities)
		w.WriteString(",i:")
		inline := make([]string, 0, len(x.InlineEntities))
		for _, j := range x.InlineEntities {
			sub := newCanonWriter()
			encodeValue(j, sub, depth+1)
			inline = append(inline, string(sub.Bytes()))
		}
		encodeSorted(w, inline)
		w.WriteByte('}')
	case *JSONObject:
		keys := x.Keys()
		sort.Strings(keys)
		w.WriteString("O{")
		for i, k := range keys {
			if i > 0 {
				w.WriteByte(',')
			}
			w.WriteString(strconv.Quote(k))
			w.WriteByte(':')
			e, _ := x.Get(k)
			encodeElement(e, w, depth+1)
		}
		w.WriteByte('}')
	case *JSONArray:
		w.WriteString("A[")
		encodeElement(x.Items, w, depth+1)
		w.WriteByte(']')
	case *Instance:
		w.WriteString("I{" + strconv.Quote(x.Class))
		if x.Response != nil {
			w.WriteByte(',')
			encodeValue(x.Response, w, depth+1)
		}
		w.WriteByte('}')
	default:
		w.WriteString("?:" + strconv.Quote(valueString(v)))
	}
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strconv.Quote(s)
	}
	return out
}
