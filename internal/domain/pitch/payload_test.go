package pitch

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestHasContentPerShape(t *testing.T) {
	media := []uuid.UUID{uuid.New()}
	cases := []struct {
		name string
		p    Payload
		want bool
	}{
		{"text blank", TextPayload{Text: "   "}, false},
		{"text set", TextPayload{Text: "We go up"}, true},
		{"gallery empty", GalleryPayload{}, false},
		{"gallery media", GalleryPayload{MediaIDs: media}, true},
		{"document text", DocumentPayload{Text: "notes"}, true},
		{"video url", VideoPayload{VideoURL: "https://example.com/v"}, true},
		{"video blank", VideoPayload{VideoURL: " "}, false},
		{"sequence none", SequencePayload{}, false},
		{"sequence sole blank beat", SequencePayload{Beats: []Beat{{ID: uuid.New()}}}, false},
		{"sequence sole captioned beat", SequencePayload{Beats: []Beat{{ID: uuid.New(), Caption: "x"}}}, true},
		{"sequence two blank beats", SequencePayload{Beats: []Beat{{ID: uuid.New()}, {ID: uuid.New()}}}, true},
		{"custom title only", CustomPayload{Title: "Budget Notes"}, false},
		{"custom text", CustomPayload{Title: "Budget Notes", Text: "$2M"}, true},
		{"custom media", CustomPayload{MediaIDs: media}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.HasContent(EmptinessPolicy{}); got != tc.want {
				t.Fatalf("HasContent = %v, want %v", got, tc.want)
			}
		})
	}
	if !(CustomPayload{Title: "Budget Notes"}).HasContent(EmptinessPolicy{TitleCountsAsContent: true}) {
		t.Fatalf("title should count when the policy says so")
	}
}

func TestEncodeDecodeEnvelope(t *testing.T) {
	in := SequencePayload{Beats: []Beat{{ID: uuid.New(), Caption: "liftoff", Order: 0}}}
	raw, err := EncodePayload(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(raw), `"kind":"sequence"`) {
		t.Fatalf("envelope missing kind: %s", raw)
	}
	out, err := DecodePayload(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	seq, ok := out.(SequencePayload)
	if !ok || len(seq.Beats) != 1 || seq.Beats[0].Caption != "liftoff" {
		t.Fatalf("unexpected decode: %#v", out)
	}
}

func TestDecodePayloadIsStrict(t *testing.T) {
	cases := map[string]string{
		"unknown kind":        `{"kind":"poem","body":{}}`,
		"field of other kind": `{"kind":"text","body":{"media_ids":[]}}`,
		"unknown envelope":    `{"kind":"text","body":{},"extra":1}`,
		"not json":            `kind=text`,
		"trailing data":       `{"kind":"text","body":{}} {}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodePayload([]byte(raw)); err == nil {
				t.Fatalf("expected decode error for %s", raw)
			}
		})
	}
	if p, err := DecodePayload([]byte(`{"kind":"gallery"}`)); err != nil || p.Kind() != KindGallery {
		t.Fatalf("missing body should decode as empty gallery, got %v %v", p, err)
	}
}

func TestValidatePayload(t *testing.T) {
	id := uuid.New()
	bad := []Payload{
		VideoPayload{VideoURL: "javascript:alert(1)"},
		VideoPayload{VideoURL: "/relative"},
		GalleryPayload{MediaIDs: []uuid.UUID{id, id}},
		GalleryPayload{MediaIDs: []uuid.UUID{uuid.Nil}},
		SequencePayload{Beats: []Beat{{}}},
		SequencePayload{Beats: []Beat{{ID: id}, {ID: id}}},
		SequencePayload{Beats: []Beat{{ID: id, AudioURL: "ftp://x/y"}}},
		CustomPayload{Title: strings.Repeat("t", 201)},
		nil,
	}
	for i, p := range bad {
		if err := ValidatePayload("test", p); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if err := ValidatePayload("test", VideoPayload{VideoURL: "https://vimeo.com/1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSectionDecodeRejectsKindMismatch(t *testing.T) {
	raw, _ := EncodePayload(TextPayload{Text: "hi"})
	s := Section{SectionKey: "characters", Kind: KindGallery, Payload: raw}
	if _, err := s.Decode(); err == nil {
		t.Fatalf("expected kind mismatch error")
	}
	s.Kind = KindText
	if p, err := s.Decode(); err != nil || p.(TextPayload).Text != "hi" {
		t.Fatalf("unexpected decode: %v %v", p, err)
	}
}

func TestSectionStateJSON(t *testing.T) {
	raw := []byte(`{"key":"vision","enabled":true,"payload":{"kind":"text","body":{"text":"We go up"}}}`)
	var s SectionState
	if err := s.UnmarshalJSON(raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Payload.(TextPayload).Text != "We go up" {
		t.Fatalf("unexpected payload: %#v", s.Payload)
	}
	if err := s.UnmarshalJSON([]byte(`{"key":"vision","payload":{"kind":"text","body":{"video_url":"x"}}}`)); err == nil {
		t.Fatalf("expected strict payload decode error")
	}
	keys := EnabledKeys([]SectionState{{Key: "a", Enabled: true}, {Key: "b"}, {Key: "c", Enabled: true}})
	if strings.Join(keys, ",") != "a,c" {
		t.Fatalf("EnabledKeys = %v", keys)
	}
}

func TestWithoutMedia(t *testing.T) {
	keep, gone := uuid.New(), uuid.New()
	policy := EmptinessPolicy{}

	g, changed := WithoutMedia(GalleryPayload{MediaIDs: []uuid.UUID{keep, gone}}, gone)
	if !changed || len(g.MediaRefs()) != 1 || g.MediaRefs()[0] != keep {
		t.Fatalf("gallery: changed=%v refs=%v", changed, g.MediaRefs())
	}

	d, changed := WithoutMedia(DocumentPayload{MediaIDs: []uuid.UUID{gone}}, gone)
	if !changed || d.HasContent(policy) {
		t.Fatalf("document with only the removed id should be empty: %+v", d)
	}

	seq := SequencePayload{Beats: []Beat{
		{ID: uuid.New(), Caption: "open", MediaIDs: []uuid.UUID{gone}},
		{ID: uuid.New(), MediaIDs: []uuid.UUID{keep}, Order: 1},
	}}
	s, changed := WithoutMedia(seq, gone)
	if !changed || len(s.MediaRefs()) != 1 || s.MediaRefs()[0] != keep {
		t.Fatalf("sequence: changed=%v refs=%v", changed, s.MediaRefs())
	}
	if len(seq.Beats[0].MediaIDs) != 1 {
		t.Fatalf("input beats were mutated")
	}

	if _, changed := WithoutMedia(TextPayload{Text: "x"}, gone); changed {
		t.Fatalf("text payload has no media to drop")
	}
	if _, changed := WithoutMedia(GalleryPayload{MediaIDs: []uuid.UUID{keep}}, gone); changed {
		t.Fatalf("unrelated id reported as changed")
	}
}
