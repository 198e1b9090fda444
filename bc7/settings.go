package bc7

// Settings controls the per-block mode search. A Settings value is read-only
// for the duration of a compression pass; the same value always produces the
// same output.
//
// ModeSelection enables the four mode families in order:
// {0,2}, {1,3,7}, {4,5}, {6}. Modes 1, 3 and 7 are additionally gated by
// their fast-skip thresholds: the number of top-ranked partitions (out of 64)
// that are fully evaluated, 0 disabling the mode entirely. RefineIterations
// holds the endpoint refinement loop count per mode; 0 disables refinement
// for that mode.
type Settings struct {
	RefineIterations [8]uint32
	ModeSelection    [4]bool

	SkipMode2 bool

	FastSkipThresholdMode1 uint32
	FastSkipThresholdMode3 uint32
	FastSkipThresholdMode7 uint32

	// Mode45Channel0 is the first channel eligible for the mode 4/5 alpha
	// rotation search. Setting it to 3 restricts the search to the identity
	// rotation.
	Mode45Channel0 uint32

	// RefineIterationsChannel is the refinement loop count for the scalar
	// optimizer fitting the rotated-out channel in modes 4 and 5.
	RefineIterationsChannel uint32

	// Channels is 3 for opaque (RGB) sources and 4 for RGBA.
	Channels uint32
}

func (s *Settings) validate() error {
	if s.Channels != 3 && s.Channels != 4 {
		return newError(ErrBadSettings, "bc7: channels must be 3 or 4")
	}
	if !s.ModeSelection[0] && !s.ModeSelection[1] && !s.ModeSelection[2] && !s.ModeSelection[3] {
		return newError(ErrBadSettings, "bc7: no mode family enabled")
	}
	if s.ModeSelection[1] && s.FastSkipThresholdMode1 == 0 && s.FastSkipThresholdMode3 == 0 &&
		s.FastSkipThresholdMode7 == 0 && !s.ModeSelection[0] && !s.ModeSelection[2] && !s.ModeSelection[3] {
		return newError(ErrBadSettings, "bc7: mode family {1,3,7} enabled with all fast-skip thresholds zero")
	}
	if s.FastSkipThresholdMode1 > 64 || s.FastSkipThresholdMode3 > 64 || s.FastSkipThresholdMode7 > 64 {
		return newError(ErrBadSettings, "bc7: fast-skip threshold above 64")
	}
	if s.Mode45Channel0 > 3 {
		return newError(ErrBadSettings, "bc7: mode 4/5 start channel above 3")
	}
	return nil
}

// OpaqueUltraFast returns the fastest preset for 3-channel sources: mode 6
// only, no refinement beyond the endpoint fit.
func OpaqueUltraFast() Settings {
	return Settings{
		Channels:               3,
		ModeSelection:          [4]bool{false, false, false, true},
		SkipMode2:              true,
		FastSkipThresholdMode1: 3,
		FastSkipThresholdMode3: 1,
		RefineIterations:       [8]uint32{2, 2, 2, 1, 2, 2, 1, 0},
	}
}

// OpaqueVeryFast returns a fast preset for 3-channel sources adding a small
// mode 1/3 partition search on top of mode 6.
func OpaqueVeryFast() Settings {
	return Settings{
		Channels:               3,
		ModeSelection:          [4]bool{false, true, false, true},
		SkipMode2:              true,
		FastSkipThresholdMode1: 3,
		FastSkipThresholdMode3: 1,
		RefineIterations:       [8]uint32{2, 2, 2, 1, 2, 2, 1, 0},
	}
}

// OpaqueFast returns a balanced fast preset for 3-channel sources.
func OpaqueFast() Settings {
	return Settings{
		Channels:               3,
		ModeSelection:          [4]bool{false, true, false, true},
		SkipMode2:              true,
		FastSkipThresholdMode1: 12,
		FastSkipThresholdMode3: 4,
		RefineIterations:       [8]uint32{2, 2, 2, 1, 2, 2, 2, 0},
	}
}

// OpaqueBasic returns the default quality preset for 3-channel sources with
// every mode family enabled.
func OpaqueBasic() Settings {
	return Settings{
		Channels:                3,
		ModeSelection:           [4]bool{true, true, true, true},
		SkipMode2:               true,
		FastSkipThresholdMode1:  12,
		FastSkipThresholdMode3:  8,
		RefineIterationsChannel: 2,
		RefineIterations:        [8]uint32{2, 2, 2, 2, 2, 2, 2, 0},
	}
}

// OpaqueSlow returns the highest quality preset for 3-channel sources,
// including the exhaustive mode 2 partition search.
func OpaqueSlow() Settings {
	return Settings{
		Channels:                3,
		ModeSelection:           [4]bool{true, true, true, true},
		FastSkipThresholdMode1:  64,
		FastSkipThresholdMode3:  64,
		RefineIterationsChannel: 4,
		RefineIterations:        [8]uint32{4, 4, 4, 4, 4, 4, 4, 0},
	}
}

// AlphaUltraFast returns the fastest preset for 4-channel sources.
func AlphaUltraFast() Settings {
	return Settings{
		Channels:                4,
		ModeSelection:           [4]bool{false, false, true, true},
		SkipMode2:               true,
		FastSkipThresholdMode7:  4,
		Mode45Channel0:          3,
		RefineIterationsChannel: 1,
		RefineIterations:        [8]uint32{2, 1, 2, 1, 1, 1, 2, 2},
	}
}

// AlphaVeryFast returns a fast preset for 4-channel sources.
func AlphaVeryFast() Settings {
	return Settings{
		Channels:                4,
		ModeSelection:           [4]bool{false, true, true, true},
		SkipMode2:               true,
		FastSkipThresholdMode7:  4,
		Mode45Channel0:          3,
		RefineIterationsChannel: 2,
		RefineIterations:        [8]uint32{2, 1, 2, 1, 2, 2, 2, 2},
	}
}

// AlphaFast returns a balanced fast preset for 4-channel sources.
func AlphaFast() Settings {
	return Settings{
		Channels:                4,
		ModeSelection:           [4]bool{false, true, true, true},
		SkipMode2:               true,
		FastSkipThresholdMode1:  4,
		FastSkipThresholdMode3:  4,
		FastSkipThresholdMode7:  8,
		Mode45Channel0:          3,
		RefineIterationsChannel: 2,
		RefineIterations:        [8]uint32{2, 1, 2, 1, 2, 2, 2, 2},
	}
}

// AlphaBasic returns the default quality preset for 4-channel sources with
// every mode family enabled and the full rotation search.
func AlphaBasic() Settings {
	return Settings{
		Channels:                4,
		ModeSelection:           [4]bool{true, true, true, true},
		SkipMode2:               true,
		FastSkipThresholdMode1:  12,
		FastSkipThresholdMode3:  8,
		FastSkipThresholdMode7:  8,
		RefineIterationsChannel: 2,
		RefineIterations:        [8]uint32{2, 2, 2, 2, 2, 2, 2, 2},
	}
}

// AlphaSlow returns the highest quality preset for 4-channel sources.
func AlphaSlow() Settings {
	return Settings{
		Channels:                4,
		ModeSelection:           [4]bool{true, true, true, true},
		FastSkipThresholdMode1:  64,
		FastSkipThresholdMode3:  64,
		FastSkipThresholdMode7:  64,
		RefineIterationsChannel: 4,
		RefineIterations:        [8]uint32{4, 4, 4, 4, 4, 4, 4, 4},
	}
}
