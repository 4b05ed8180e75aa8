package latent

// Interpretation is the plain-language reading of a latent map.
type Interpretation struct {
	Mood      string `json:"mood" yaml:"mood"`
	Energy    string `json:"energy" yaml:"energy"`
	Pattern   string `json:"pattern" yaml:"pattern"`
	Character string `json:"character" yaml:"character"`
	Evolution string `json:"evolution" yaml:"evolution"`
	Texture   string `json:"texture" yaml:"texture"`
	Space     string `json:"space" yaml:"space"`
}

// Fields returns the interpretation as label/value pairs in display order.
func (in Interpretation) Fields() [][2]string {
	return [][2]string{
		{"Mood", in.Mood},
		{"Energy", in.Energy},
		{"Pattern", in.Pattern},
		{"Character", in.Character},
		{"Evolution", in.Evolution},
		{"Texture", in.Texture},
		{"Space", in.Space},
	}
}

// Interpret maps the scalar descriptors of m onto fixed bands. Missing
// descriptors read as zero.
func Interpret(m Map) Interpretation {
	var in Interpretation

	switch v := m.Float(KeyValence); {
	case v > 0.3:
		in.Mood = "positive/uplifting"
	case v < -0.3:
		in.Mood = "negative/melancholic"
	default:
		in.Mood = "neutral/ambient"
	}

	switch e := m.Float(KeyEnergy); {
	case e > 0.15:
		in.Energy = "high (active/intense)"
	case e > 0.05:
		in.Energy = "medium (moderate)"
	default:
		in.Energy = "low (calm/quiet)"
	}

	if m.Float(KeyComplexity) > 0.5 {
		in.Pattern = "complex/unpredictable"
	} else {
		in.Pattern = "simple/regular"
	}

	switch h := m.Float(KeyHarmonic); {
	case h > 0.6:
		in.Character = "tonal/melodic"
	case h > 0.3:
		in.Character = "mixed (tonal + noise)"
	default:
		in.Character = "noisy/percussive"
	}

	switch s := m.Float(KeyTrajectory); {
	case s > 0.1:
		in.Evolution = "brightening (rising energy)"
	case s < -0.1:
		in.Evolution = "darkening (falling energy)"
	default:
		in.Evolution = "stable (unchanging)"
	}

	switch t := m.Float(KeyTexture); {
	case t > 0.6:
		in.Texture = "dense/rich (many layers)"
	case t > 0.3:
		in.Texture = "moderate"
	default:
		in.Texture = "sparse/simple (few elements)"
	}

	switch o := m.Float(KeyOpenness); {
	case o > 0.6:
		in.Space = "open/expansive (outdoor feeling)"
	case o > 0.3:
		in.Space = "medium"
	default:
		in.Space = "enclosed/intimate (indoor feeling)"
	}

	return in
}
