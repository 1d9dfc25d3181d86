package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// Значения Metadata["encoding"]
const (
	EncodingJSON     = "json"
	EncodingZstdJSON = "zstd+json"
)

// Codec сериализует полезную нагрузку событий в JSON, при необходимости сжимая zstd.
type Codec struct {
	source  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec создаёт кодек для источника source. compress включает zstd.
func NewCodec(source string, compress bool) (*Codec, error) {
	c := &Codec{source: source}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	c.decoder = dec

	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			dec.Close()
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		c.encoder = enc
	}
	return c, nil
}

// Close освобождает ресурсы zstd
func (c *Codec) Close() {
	if c.encoder != nil {
		_ = c.encoder.Close()
	}
	c.decoder.Close()
}

// Envelope упаковывает payload в новый конверт с UUID и текущим временем
func (c *Codec) Envelope(eventType string, priority int, correlationID string, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", eventType, err)
	}

	encoding := EncodingJSON
	if c.encoder != nil {
		raw = c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)))
		encoding = EncodingZstdJSON
	}

	return &Envelope{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Source:        c.source,
		EventType:     eventType,
		Version:       1,
		CorrelationID: correlationID,
		Priority:      priority,
		Payload:       raw,
		Metadata:      map[string]string{"encoding": encoding},
	}, nil
}

// Decode распаковывает payload конверта в v
func (c *Codec) Decode(ev *Envelope, v any) error {
	raw := ev.Payload
	if ev.Metadata["encoding"] == EncodingZstdJSON {
		var err error
		raw, err = c.decoder.DecodeAll(ev.Payload, nil)
		if err != nil {
			return fmt.Errorf("decompress %s: %w", ev.EventType, err)
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", ev.EventType, err)
	}
	return nil
}
