package pitch

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
)

// Beat is one ordered narrative unit of a sequence section.
type Beat struct {
	ID       uuid.UUID   `json:"id"`
	Caption  string      `json:"caption,omitempty"`
	ArcLabel string      `json:"arc_label,omitempty"`
	MediaIDs []uuid.UUID `json:"media_ids,omitempty"`
	VideoURL string      `json:"video_url,omitempty"`
	AudioURL string      `json:"audio_url,omitempty"`
	Order    int         `json:"order"`
}

// Blank reports whether the beat carries nothing at all.
func (b Beat) Blank() bool {
	return strings.TrimSpace(b.Caption) == "" &&
		strings.TrimSpace(b.ArcLabel) == "" &&
		len(b.MediaIDs) == 0 &&
		strings.TrimSpace(b.VideoURL) == "" &&
		strings.TrimSpace(b.AudioURL) == ""
}

func (b Beat) clone() Beat {
	if b.MediaIDs != nil {
		b.MediaIDs = append([]uuid.UUID(nil), b.MediaIDs...)
	}
	return b
}

// BeatPatch is a partial update; nil fields are left untouched.
type BeatPatch struct {
	Caption  *string      `json:"caption,omitempty"`
	ArcLabel *string      `json:"arc_label,omitempty"`
	MediaIDs *[]uuid.UUID `json:"media_ids,omitempty"`
	VideoURL *string      `json:"video_url,omitempty"`
	AudioURL *string      `json:"audio_url,omitempty"`
}

type Direction int

const (
	MoveUp   Direction = -1
	MoveDown Direction = 1
)

// BeatSequence holds the beats of one sequence section during an edit session.
// Every mutation re-derives Order from slice position, so orders stay 0..n-1.
type BeatSequence struct {
	beats []Beat
}

// NewBeatSequence adopts beats ordered by their stored Order (stable for ties).
func NewBeatSequence(beats []Beat) *BeatSequence {
	s := &BeatSequence{beats: make([]Beat, 0, len(beats))}
	for _, b := range beats {
		s.beats = append(s.beats, b.clone())
	}
	sort.SliceStable(s.beats, func(i, j int) bool { return s.beats[i].Order < s.beats[j].Order })
	s.repack()
	return s
}

func (s *BeatSequence) repack() {
	for i := range s.beats {
		s.beats[i].Order = i
	}
}

func (s *BeatSequence) Len() int { return len(s.beats) }

// Beats returns a copy of the current ordered beats.
func (s *BeatSequence) Beats() []Beat {
	out := make([]Beat, 0, len(s.beats))
	for _, b := range s.beats {
		out = append(out, b.clone())
	}
	return out
}

func (s *BeatSequence) indexOf(id uuid.UUID) int {
	for i, b := range s.beats {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Append adds a beat at the end, assigning an id when missing.
func (s *BeatSequence) Append(b Beat) (Beat, error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if s.indexOf(b.ID) >= 0 {
		return Beat{}, aggregates.Conflict("beats.append", "beat %s already exists", b.ID)
	}
	s.beats = append(s.beats, b.clone())
	s.repack()
	return s.beats[len(s.beats)-1].clone(), nil
}

func (s *BeatSequence) Remove(id uuid.UUID) error {
	i := s.indexOf(id)
	if i < 0 {
		return aggregates.NotFound("beats.remove", "beat")
	}
	s.beats = append(s.beats[:i], s.beats[i+1:]...)
	s.repack()
	return nil
}

// Move shifts the beat at index one step in dir. Moving past either end is a no-op.
func (s *BeatSequence) Move(index int, dir Direction) error {
	if index < 0 || index >= len(s.beats) {
		return aggregates.Validation("beats.move", "index %d out of range [0,%d)", index, len(s.beats))
	}
	if dir != MoveUp && dir != MoveDown {
		return aggregates.Validation("beats.move", "direction must be up or down")
	}
	target := index + int(dir)
	if target < 0 || target >= len(s.beats) {
		return nil
	}
	s.beats[index], s.beats[target] = s.beats[target], s.beats[index]
	s.repack()
	return nil
}

func (s *BeatSequence) Update(id uuid.UUID, patch BeatPatch) (Beat, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Beat{}, aggregates.NotFound("beats.update", "beat")
	}
	b := &s.beats[i]
	if patch.Caption != nil {
		b.Caption = *patch.Caption
	}
	if patch.ArcLabel != nil {
		b.ArcLabel = *patch.ArcLabel
	}
	if patch.MediaIDs != nil {
		b.MediaIDs = append([]uuid.UUID(nil), (*patch.MediaIDs)...)
	}
	if patch.VideoURL != nil {
		b.VideoURL = *patch.VideoURL
	}
	if patch.AudioURL != nil {
		b.AudioURL = *patch.AudioURL
	}
	s.repack()
	return b.clone(), nil
}
