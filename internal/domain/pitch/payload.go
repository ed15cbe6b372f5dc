package pitch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
)

// Kind is the archetype of a section payload.
type Kind string

const (
	KindText     Kind = "text"
	KindGallery  Kind = "gallery"
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
	KindSequence Kind = "sequence"
	KindCustom   Kind = "custom"
)

func (k Kind) Valid() bool {
	switch k {
	case KindText, KindGallery, KindDocument, KindVideo, KindSequence, KindCustom:
		return true
	}
	return false
}

// EmptinessPolicy tunes the non-empty predicate.
type EmptinessPolicy struct {
	// TitleCountsAsContent makes a custom section with only a title worth persisting.
	TitleCountsAsContent bool
}

// Payload is the closed set of section payload shapes.
type Payload interface {
	Kind() Kind
	// HasContent is the per-shape non-empty predicate.
	HasContent(policy EmptinessPolicy) bool
	// MediaRefs lists every media id the payload points at.
	MediaRefs() []uuid.UUID
	validate() error
}

type TextPayload struct {
	Text string `json:"text,omitempty"`
}

type GalleryPayload struct {
	Text     string      `json:"text,omitempty"`
	MediaIDs []uuid.UUID `json:"media_ids,omitempty"`
}

type DocumentPayload struct {
	Text     string      `json:"text,omitempty"`
	MediaIDs []uuid.UUID `json:"media_ids,omitempty"`
}

type VideoPayload struct {
	Text     string `json:"text,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

type SequencePayload struct {
	Beats []Beat `json:"beats,omitempty"`
}

type CustomPayload struct {
	Title    string      `json:"title,omitempty"`
	Text     string      `json:"text,omitempty"`
	MediaIDs []uuid.UUID `json:"media_ids,omitempty"`
	VideoURL string      `json:"video_url,omitempty"`
}

func (TextPayload) Kind() Kind     { return KindText }
func (GalleryPayload) Kind() Kind  { return KindGallery }
func (DocumentPayload) Kind() Kind { return KindDocument }
func (VideoPayload) Kind() Kind    { return KindVideo }
func (SequencePayload) Kind() Kind { return KindSequence }
func (CustomPayload) Kind() Kind   { return KindCustom }

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func (p TextPayload) HasContent(EmptinessPolicy) bool { return !blank(p.Text) }

func (p GalleryPayload) HasContent(EmptinessPolicy) bool {
	return !blank(p.Text) || len(p.MediaIDs) > 0
}

func (p DocumentPayload) HasContent(EmptinessPolicy) bool {
	return !blank(p.Text) || len(p.MediaIDs) > 0
}

func (p VideoPayload) HasContent(EmptinessPolicy) bool {
	return !blank(p.Text) || !blank(p.VideoURL)
}

// HasContent ignores a lone blank beat; two or more beats always count.
func (p SequencePayload) HasContent(EmptinessPolicy) bool {
	switch len(p.Beats) {
	case 0:
		return false
	case 1:
		return !p.Beats[0].Blank()
	default:
		return true
	}
}

func (p CustomPayload) HasContent(policy EmptinessPolicy) bool {
	if !blank(p.Text) || len(p.MediaIDs) > 0 || !blank(p.VideoURL) {
		return true
	}
	return policy.TitleCountsAsContent && !blank(p.Title)
}

func (TextPayload) MediaRefs() []uuid.UUID       { return nil }
func (p GalleryPayload) MediaRefs() []uuid.UUID  { return p.MediaIDs }
func (p DocumentPayload) MediaRefs() []uuid.UUID { return p.MediaIDs }
func (VideoPayload) MediaRefs() []uuid.UUID      { return nil }
func (p CustomPayload) MediaRefs() []uuid.UUID   { return p.MediaIDs }

func (p SequencePayload) MediaRefs() []uuid.UUID {
	var out []uuid.UUID
	for _, b := range p.Beats {
		out = append(out, b.MediaIDs...)
	}
	return out
}

// WithoutMedia returns p with every reference to id removed and whether anything changed.
func WithoutMedia(p Payload, id uuid.UUID) (Payload, bool) {
	switch v := p.(type) {
	case GalleryPayload:
		ids, changed := dropID(v.MediaIDs, id)
		v.MediaIDs = ids
		return v, changed
	case DocumentPayload:
		ids, changed := dropID(v.MediaIDs, id)
		v.MediaIDs = ids
		return v, changed
	case CustomPayload:
		ids, changed := dropID(v.MediaIDs, id)
		v.MediaIDs = ids
		return v, changed
	case SequencePayload:
		touched := false
		beats := make([]Beat, len(v.Beats))
		for i, b := range v.Beats {
			ids, changed := dropID(b.MediaIDs, id)
			b.MediaIDs = ids
			beats[i] = b
			touched = touched || changed
		}
		v.Beats = beats
		return v, touched
	default:
		return p, false
	}
}

func dropID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	var out []uuid.UUID
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out, len(out) != len(ids)
}

const maxTextLen = 20000

func validateText(field, s string) error {
	if len(s) > maxTextLen {
		return fmt.Errorf("%s is longer than %d characters", field, maxTextLen)
	}
	return nil
}

func validateURL(field, raw string) error {
	if blank(raw) {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) url", field)
	}
	return nil
}

func validateMediaIDs(field string, ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return fmt.Errorf("%s contains an empty id", field)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%s lists %s twice", field, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (p TextPayload) validate() error { return validateText("text", p.Text) }

func (p GalleryPayload) validate() error {
	if err := validateText("text", p.Text); err != nil {
		return err
	}
	return validateMediaIDs("media_ids", p.MediaIDs)
}

func (p DocumentPayload) validate() error {
	if err := validateText("text", p.Text); err != nil {
		return err
	}
	return validateMediaIDs("media_ids", p.MediaIDs)
}

func (p VideoPayload) validate() error {
	if err := validateText("text", p.Text); err != nil {
		return err
	}
	return validateURL("video_url", p.VideoURL)
}

func (p SequencePayload) validate() error {
	seen := make(map[uuid.UUID]struct{}, len(p.Beats))
	for i, b := range p.Beats {
		if b.ID == uuid.Nil {
			return fmt.Errorf("beats[%d] has no id", i)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("beats[%d] repeats id %s", i, b.ID)
		}
		seen[b.ID] = struct{}{}
		if err := validateText(fmt.Sprintf("beats[%d].caption", i), b.Caption); err != nil {
			return err
		}
		if err := validateMediaIDs(fmt.Sprintf("beats[%d].media_ids", i), b.MediaIDs); err != nil {
			return err
		}
		if err := validateURL(fmt.Sprintf("beats[%d].video_url", i), b.VideoURL); err != nil {
			return err
		}
		if err := validateURL(fmt.Sprintf("beats[%d].audio_url", i), b.AudioURL); err != nil {
			return err
		}
	}
	return nil
}

func (p CustomPayload) validate() error {
	if len(p.Title) > 200 {
		return fmt.Errorf("title is longer than 200 characters")
	}
	if err := validateText("text", p.Text); err != nil {
		return err
	}
	if err := validateMediaIDs("media_ids", p.MediaIDs); err != nil {
		return err
	}
	return validateURL("video_url", p.VideoURL)
}

// Normalize returns the payload with beats re-packed so Order is 0..n-1.
func Normalize(p Payload) Payload {
	if seq, ok := p.(SequencePayload); ok {
		seq.Beats = NewBeatSequence(seq.Beats).Beats()
		return seq
	}
	return p
}

// ValidatePayload checks the payload shape for the given operation.
func ValidatePayload(op string, p Payload) error {
	if p == nil {
		return aggregates.Validation(op, "payload is required")
	}
	if err := p.validate(); err != nil {
		return aggregates.Validation(op, "%s payload: %v", p.Kind(), err)
	}
	return nil
}

// EmptyPayload is the zero payload of an archetype.
func EmptyPayload(kind Kind) Payload {
	switch kind {
	case KindGallery:
		return GalleryPayload{}
	case KindDocument:
		return DocumentPayload{}
	case KindVideo:
		return VideoPayload{}
	case KindSequence:
		return SequencePayload{}
	case KindCustom:
		return CustomPayload{}
	default:
		return TextPayload{}
	}
}

type payloadEnvelope struct {
	Kind Kind            `json:"kind"`
	Body json.RawMessage `json:"body,omitempty"`
}

// EncodePayload serialises a payload into its tagged envelope.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nil payload")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(payloadEnvelope{Kind: p.Kind(), Body: body})
}

// DecodePayload strictly decodes a tagged envelope. Unknown kinds and fields that do not
// belong to the archetype are rejected.
func DecodePayload(raw []byte) (Payload, error) {
	var env payloadEnvelope
	if err := strictUnmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("payload envelope: %w", err)
	}
	body := env.Body
	if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		body = []byte("{}")
	}
	var p Payload
	var err error
	switch env.Kind {
	case KindText:
		var v TextPayload
		err = strictUnmarshal(body, &v)
		p = v
	case KindGallery:
		var v GalleryPayload
		err = strictUnmarshal(body, &v)
		p = v
	case KindDocument:
		var v DocumentPayload
		err = strictUnmarshal(body, &v)
		p = v
	case KindVideo:
		var v VideoPayload
		err = strictUnmarshal(body, &v)
		p = v
	case KindSequence:
		var v SequencePayload
		err = strictUnmarshal(body, &v)
		p = v
	case KindCustom:
		var v CustomPayload
		err = strictUnmarshal(body, &v)
		p = v
	default:
		return nil, fmt.Errorf("unknown payload kind %q", env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s payload: %w", env.Kind, err)
	}
	return p, nil
}

func strictUnmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after json value")
	}
	return nil
}
