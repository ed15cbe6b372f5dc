package pitch

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContentKind string

const (
	ContentImage    ContentKind = "image"
	ContentDocument ContentKind = "document"
)

// Media is one uploaded binary attached to a pitch section.
type Media struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	PitchID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"pitch_id"`
	SectionKey  string      `gorm:"column:section_key;not null" json:"section_key"`
	StoragePath string      `gorm:"column:storage_path;not null;uniqueIndex" json:"-"`
	ContentKind ContentKind `gorm:"column:content_kind;not null" json:"content_kind"`
	ContentType string      `gorm:"column:content_type;not null" json:"content_type"`
	SizeBytes   int64       `gorm:"column:size_bytes;not null" json:"size_bytes"`
	OrderIndex  int         `gorm:"column:order_index;not null" json:"order_index"`
	CreatedAt   time.Time   `gorm:"not null" json:"created_at"`
}

func (Media) TableName() string { return "pitch_media" }

func (m *Media) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

var contentTypes = map[string]struct {
	kind ContentKind
	ext  string
}{
	"image/png":       {ContentImage, ".png"},
	"image/jpeg":      {ContentImage, ".jpg"},
	"image/webp":      {ContentImage, ".webp"},
	"image/gif":       {ContentImage, ".gif"},
	"application/pdf": {ContentDocument, ".pdf"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {ContentDocument, ".docx"},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {ContentDocument, ".pptx"},
}

// ContentKindFor maps a MIME type to its content kind and object extension.
func ContentKindFor(contentType string) (ContentKind, string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	v, ok := contentTypes[ct]
	if !ok {
		return "", "", false
	}
	return v.kind, v.ext, true
}

// MediaPath builds the object path for a new upload. The client filename never participates.
func MediaPath(ownerID, pitchID uuid.UUID, ext string) string {
	return "pitches/" + ownerID.String() + "/" + pitchID.String() + "/" + uuid.NewString() + ext
}
