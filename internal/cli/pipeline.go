package cli

import (
	"github.com/spf13/pflag"

	"github.com/banshee-data/eventvision/internal/config"
	"github.com/banshee-data/eventvision/internal/events"
	"github.com/banshee-data/eventvision/internal/events/transform"
	"github.com/banshee-data/eventvision/internal/monitoring"
)

// pipeline holds the transform flags shared by export, render and stats.
type pipeline struct {
	sort       bool
	roi        string
	normalize  bool
	refractory uint64

	flags *pflag.FlagSet
}

func (p *pipeline) bind(fs *pflag.FlagSet) {
	p.flags = fs
	fs.BoolVar(&p.sort, "sort", false, "stable sort events by timestamp first")
	fs.StringVar(&p.roi, "roi", "", "keep only events inside x,y,w,h")
	fs.BoolVar(&p.normalize, "normalize", false, "shift ROI output to the origin and resize to the box")
	fs.Uint64Var(&p.refractory, "refractory", 0, "per-pixel refractory period in us (default from config)")
}

// apply runs sort, ROI and refractory in that order.
func (p *pipeline) apply(s *events.Stream, cfg *config.Config) (*events.Stream, error) {
	if p.sort {
		s = transform.SortByTimestamp(s)
	}
	if p.roi != "" {
		topLeft, size, err := parseROI(p.roi)
		if err != nil {
			return nil, err
		}
		before := s.Len()
		s = transform.ExtractROI(s, topLeft, size, p.normalize)
		monitoring.Debugf("ROI %s kept %d of %d events", p.roi, s.Len(), before)
	}

	window := cfg.GetRefractoryUs()
	if p.flags != nil && p.flags.Changed("refractory") {
		window = p.refractory
	}
	if window > 0 {
		before := s.Len()
		s = transform.ApplyRefractory(s, window)
		monitoring.Debugf("Refractory %dus kept %d of %d events", window, s.Len(), before)
	}
	return s, nil
}
