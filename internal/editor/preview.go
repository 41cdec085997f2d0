package editor

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/editor/internal/render"
)

const previewOpacity = 0.75

// preview swaps an instance's materials to a translucent white tint and
// remembers the originals by material id.
type preview struct {
	saved []render.Material
}

func (p *preview) apply(inst *render.Instance) {
	p.saved = append(p.saved[:0], inst.Materials...)
	for i := range inst.Materials {
		m := &inst.Materials[i]
		m.Diffuse = mgl64.Vec4{1, 1, 1, 1}
		m.Opacity = previewOpacity
		m.Blended = true
	}
}

func (p *preview) restore(inst *render.Instance) {
	for i := range inst.Materials {
		m := &inst.Materials[i]
		for _, orig := range p.saved {
			if orig.ID == m.ID {
				*m = orig
				break
			}
		}
	}
	p.saved = p.saved[:0]
}
