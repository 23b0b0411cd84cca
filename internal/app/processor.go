package app

import (
	"fmt"
	"image"
	"log"

	"github.com/ayusman/peekaboo/internal/catalog"
	"github.com/ayusman/peekaboo/internal/detector"
	"github.com/ayusman/peekaboo/internal/overlay"
	"github.com/ayusman/peekaboo/internal/toggle"
	"gocv.io/x/gocv"
)

// Context bundles the long-lived handles the frame loop reads. It is built
// once at startup and never modified.
type Context struct {
	Catalog  *catalog.Catalog
	Detector detector.Detector
}

// Result is the outcome of one enabled feature kind on one frame.
type Result struct {
	Kind    catalog.Kind
	Boxes   []image.Rectangle
	Written int
	Err     error
}

// Processor renders every enabled feature onto a frame.
type Processor struct {
	ctx Context
}

// NewProcessor creates a processor over ctx.
func NewProcessor(ctx Context) *Processor {
	return &Processor{ctx: ctx}
}

// Process detects and renders each enabled catalog entry in catalog order,
// so later entries draw over earlier ones. A fault in one entry is logged and
// recorded on its Result; the remaining entries still run. Disabled entries
// produce no Result and no detector call.
func (p *Processor) Process(frame *gocv.Mat, state toggle.State) []Result {
	var results []Result

	for _, entry := range p.ctx.Catalog.Entries() {
		if !state.Enabled(entry.Kind) {
			continue
		}

		res := p.processEntry(frame, entry)
		if res.Err != nil {
			log.Printf("Skipping %s for this frame: %v", entry.Kind, res.Err)
		}
		results = append(results, res)
	}

	return results
}

func (p *Processor) processEntry(frame *gocv.Mat, entry catalog.Entry) Result {
	res := Result{Kind: entry.Kind}

	boxes, err := p.ctx.Detector.Detect(frame, entry.Classifier, entry.Params)
	if err != nil {
		res.Err = fmt.Errorf("detect: %w", err)
		return res
	}
	res.Boxes = boxes

	for _, box := range boxes {
		switch entry.Mode {
		case catalog.ModeOverlay:
			n, err := overlay.Overlay(frame, entry.Asset, box)
			res.Written += n
			if err != nil {
				res.Err = fmt.Errorf("composite %v: %w", box, err)
				return res
			}
		case catalog.ModeRectangle:
			if err := overlay.Rectangle(frame, box, entry.Color, entry.Thickness); err != nil {
				res.Err = fmt.Errorf("draw %v: %w", box, err)
				return res
			}
		}
	}

	return res
}
