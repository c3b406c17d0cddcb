// Package artifact loads the trained model and its label encoders from disk.
//
// Loading is all-or-nothing: Load either returns a Bundle with every mapping
// and the classifier ready, or an error. There is no partially loaded state
// for a caller to observe.
package artifact

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/classifier"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/codec"
)

// Bundle is the read-only state built once at startup.
type Bundle struct {
	Codec      *codec.Codec
	Classifier classifier.Classifier

	ModelPath   string
	EncoderPath string

	// ModelFingerprint and EncoderFingerprint are hex BLAKE2b-256 digests
	// of the artifact files as read.
	ModelFingerprint   string
	EncoderFingerprint string

	LoadedAt time.Time
}

// Load reads both artifacts and builds the Bundle.
func Load(modelPath, encoderPath string, logger *zap.Logger) (*Bundle, error) {
	encoders, encSum, err := LoadEncoders(encoderPath)
	if err != nil {
		return nil, err
	}
	cdc, err := codec.New(encoders)
	if err != nil {
		return nil, fmt.Errorf("build category mappings from %s: %w", encoderPath, err)
	}

	clf, modelSum, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}

	logger.Info("model and encoders loaded",
		zap.String("model_path", modelPath),
		zap.String("encoder_path", encoderPath),
		zap.Int("algorithms", len(cdc.Algorithms())),
		zap.String("model_blake2b", modelSum),
		zap.String("encoders_blake2b", encSum),
	)

	return &Bundle{
		Codec:              cdc,
		Classifier:         clf,
		ModelPath:          modelPath,
		EncoderPath:        encoderPath,
		ModelFingerprint:   modelSum,
		EncoderFingerprint: encSum,
		LoadedAt:           time.Now().UTC(),
	}, nil
}

// LoadEncoders reads the label-encoder artifact: a list of {column, classes}
// entries, JSON or YAML by file extension.
func LoadEncoders(path string) ([]codec.Encoder, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read encoders: %w", err)
	}
	var encoders []codec.Encoder
	if err := decode(path, raw, &encoders); err != nil {
		return nil, "", fmt.Errorf("decode encoders %s: %w", path, err)
	}
	if len(encoders) == 0 {
		return nil, "", fmt.Errorf("decode encoders %s: no columns", path)
	}
	return encoders, fingerprint(raw), nil
}

// LoadModel reads and validates the model artifact.
func LoadModel(path string) (classifier.Classifier, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read model: %w", err)
	}
	var spec classifier.Spec
	if err := decode(path, raw, &spec); err != nil {
		return nil, "", fmt.Errorf("decode model %s: %w", path, err)
	}
	if spec.NFeatures != codec.NumFeatures {
		return nil, "", fmt.Errorf("model %s: expects %d features, service supplies %d", path, spec.NFeatures, codec.NumFeatures)
	}
	if err := checkFeatureNames(spec.FeatureNames); err != nil {
		return nil, "", fmt.Errorf("model %s: %w", path, err)
	}
	clf, err := classifier.FromSpec(&spec)
	if err != nil {
		return nil, "", fmt.Errorf("model %s: %w", path, err)
	}
	return clf, fingerprint(raw), nil
}

// checkFeatureNames verifies that a model trained with named columns saw
// them in the order the service builds feature vectors.
func checkFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != codec.NumFeatures {
		return fmt.Errorf("feature_names has %d entries, want %d", len(names), codec.NumFeatures)
	}
	for i, col := range codec.FeatureColumns {
		if names[i] != col.Name {
			return fmt.Errorf("feature_names[%d] is %q, want %q", i, names[i], col.Name)
		}
	}
	return nil
}

func decode(path string, raw []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(raw, v)
	default:
		return json.Unmarshal(raw, v)
	}
}

// FingerprintFile returns the hex BLAKE2b-256 digest of the file at path,
// comparable with the Bundle fingerprints.
func FingerprintFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fingerprint(raw), nil
}

func fingerprint(raw []byte) string {
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
