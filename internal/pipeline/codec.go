package pipeline

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/go-sod/perfml/internal/byteutil"
	"github.com/go-sod/perfml/internal/classifier/knn"
	"github.com/go-sod/perfml/internal/classifier/mlp"
	"github.com/go-sod/perfml/internal/classifier/naivebayes"
	"github.com/go-sod/perfml/internal/classifier/svm"
	"github.com/go-sod/perfml/internal/classifier/tree"
)

func init() {
	gob.Register(&knn.Classifier{})
	gob.Register(&naivebayes.Classifier{})
	gob.Register(&tree.Classifier{})
	gob.Register(&svm.Classifier{})
	gob.Register(&mlp.Classifier{})
}

// Marshal encodes a fitted pipeline.
func Marshal(p *Pipeline) ([]byte, error) {
	buf := byteutil.GetBuffer()
	defer byteutil.PutBuffer(buf)
	if err := gob.NewEncoder(buf).Encode(p); err != nil {
		return nil, fmt.Errorf("encode pipeline %s: %w", p.Name, err)
	}
	return byteutil.Detach(buf), nil
}

// Unmarshal decodes a pipeline encoded by Marshal.
func Unmarshal(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	if p.Model == nil {
		return nil, fmt.Errorf("decode pipeline %s: no model", p.Name)
	}
	return &p, nil
}
