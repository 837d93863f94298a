package imaging

import "testing"

func TestLadderDefaultsAndPresets(t *testing.T) {
	ladder := Ladder(0, 0, []string{"bw", "warm"})
	if len(ladder) != 4 {
		t.Fatalf("expected thumb+preview+2 presets, got %d", len(ladder))
	}
	if ladder[0].Kind != RenditionThumb || ladder[0].MaxEdge != defaultThumbMaxEdge {
		t.Errorf("thumb config wrong: %+v", ladder[0])
	}
	if ladder[1].Kind != RenditionPreview || ladder[1].MaxEdge != defaultPreviewMaxEdge {
		t.Errorf("preview config wrong: %+v", ladder[1])
	}
	if ladder[2].Kind != RenditionStyled || ladder[2].Preset != "bw" {
		t.Errorf("styled config wrong: %+v", ladder[2])
	}
}

func TestLadderCustomEdges(t *testing.T) {
	ladder := Ladder(200, 800, nil)
	if len(ladder) != 2 {
		t.Fatalf("expected just thumb+preview with no presets, got %d", len(ladder))
	}
	if ladder[0].MaxEdge != 200 || ladder[1].MaxEdge != 800 {
		t.Errorf("custom edges not honored: %+v", ladder)
	}
}

func TestRenditionConfigKey(t *testing.T) {
	cases := []struct {
		cfg  RenditionConfig
		want string
	}{
		{RenditionConfig{Kind: RenditionThumb}, "processed/thumbs/A/P.jpg"},
		{RenditionConfig{Kind: RenditionPreview}, "processed/previews/A/P.jpg"},
		{RenditionConfig{Kind: RenditionStyled, Preset: "bw"}, "processed/styles/bw/A/P.jpg"},
	}
	for _, c := range cases {
		got := c.cfg.Key("A", "P")
		if got != c.want {
			t.Errorf("Key() = %q, want %q", got, c.want)
		}
	}
}
