package forest

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"
)

const formatVersion = 1

// Artifact kinds
const (
	KindRegressor  = "random_forest_regressor"
	KindClassifier = "random_forest_classifier"
)

// header precedes the model in an artifact stream
type header struct {
	Kind      string
	Version   int
	CreatedAt time.Time
}

// Encode writes a model as a gob stream inside snappy framing
func Encode(w io.Writer, model interface{}) error {
	kind, err := kindOf(model)
	if err != nil {
		return err
	}

	sw := snappy.NewBufferedWriter(w)
	enc := gob.NewEncoder(sw)
	if err := enc.Encode(header{Kind: kind, Version: formatVersion, CreatedAt: time.Now().UTC()}); err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	if err := enc.Encode(model); err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	return sw.Close()
}

// Decode reads a model written by Encode into model, which must be a
// *Regressor or *Classifier matching the stored kind.
func Decode(r io.Reader, model interface{}) error {
	want, err := kindOf(model)
	if err != nil {
		return err
	}

	dec := gob.NewDecoder(snappy.NewReader(r))
	var h header
	if err := dec.Decode(&h); err != nil {
		return fmt.Errorf("failed to decode header: %w", err)
	}
	if h.Version != formatVersion {
		return fmt.Errorf("unsupported artifact version %d", h.Version)
	}
	if h.Kind != want {
		return fmt.Errorf("artifact holds a %s, want %s", h.Kind, want)
	}
	if err := dec.Decode(model); err != nil {
		return fmt.Errorf("failed to decode %s: %w", want, err)
	}
	return nil
}

// SaveFile writes a model artifact to path, creating parent directories
func SaveFile(path string, model interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if err := Encode(f, model); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// LoadRegressor reads a regressor artifact
func LoadRegressor(path string) (*Regressor, error) {
	var r Regressor
	if err := loadFile(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadClassifier reads a classifier artifact
func LoadClassifier(path string) (*Classifier, error) {
	var c Classifier
	if err := loadFile(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadFile(path string, model interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open model %s: %w", path, err)
	}
	defer f.Close()
	if err := Decode(f, model); err != nil {
		return fmt.Errorf("failed to load model %s: %w", path, err)
	}
	return nil
}

func kindOf(model interface{}) (string, error) {
	switch model.(type) {
	case *Regressor:
		return KindRegressor, nil
	case *Classifier:
		return KindClassifier, nil
	default:
		return "", fmt.Errorf("unsupported model type %T", model)
	}
}
