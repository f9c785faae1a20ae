package document

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/greenqa/internal/domain"
)

// MaxContentSize is the maximum document size in bytes.
const MaxContentSize = 10 << 20 // 10MB

var errEmpty = errors.New("document is empty")

// Document is the source text all chunks are cut from (immutable value object).
type Document struct {
	source   string
	content  string
	checksum string
}

// New validates and creates a Document from raw bytes.
// Invalid UTF-8 sequences are dropped. Whitespace-only content is unreadable.
func New(source string, raw []byte) (Document, error) {
	if source == "" {
		return Document{}, fmt.Errorf("%w: document source is required", domain.ErrInvalidRequest)
	}
	if len(raw) > MaxContentSize {
		return Document{}, fmt.Errorf("%w: document too large (max %d bytes)", domain.ErrInvalidRequest, MaxContentSize)
	}

	content := string(raw)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	if strings.TrimSpace(content) == "" {
		return Document{}, domain.NewUnreadable(source, errEmpty)
	}

	sum := sha256.Sum256([]byte(content))
	return Document{
		source:   source,
		content:  content,
		checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// Source returns the document origin (file path, upload name, "sample").
func (d *Document) Source() string { return d.source }

// Content returns the document text.
func (d *Document) Content() string { return d.content }

// Checksum returns the hex SHA-256 of the content.
func (d *Document) Checksum() string { return d.checksum }
