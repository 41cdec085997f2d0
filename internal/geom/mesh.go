package geom

import "github.com/go-gl/mathgl/mgl64"

// TriangleMesh is a triangle soup: every three vertices form one triangle.
type TriangleMesh struct {
	Vertices []mgl64.Vec3
}

// Bounds returns the axis-aligned bounds of the mesh. An empty mesh has zero bounds.
func (m *TriangleMesh) Bounds() (min, max mgl64.Vec3) {
	if m == nil || len(m.Vertices) == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return min, max
}

// Triangles returns the number of complete triangles.
func (m *TriangleMesh) Triangles() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices) / 3
}

// Slab builds a closed box mesh spanning [min, max], two triangles per face.
func Slab(min, max mgl64.Vec3) *TriangleMesh {
	c := func(x, y, z int) mgl64.Vec3 {
		pick := func(i, sel int) float64 {
			if sel == 0 {
				return min[i]
			}
			return max[i]
		}
		return mgl64.Vec3{pick(0, x), pick(1, y), pick(2, z)}
	}
	quads := [][4][3]int{
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		{{0, 0, 1}, {0, 1, 1}, {1, 1, 1}, {1, 0, 1}},
		{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {0, 0, 1}},
		{{1, 0, 0}, {1, 0, 1}, {1, 1, 1}, {1, 1, 0}},
		{{0, 0, 0}, {0, 0, 1}, {1, 0, 1}, {1, 0, 0}},
		{{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1}},
	}
	mesh := &TriangleMesh{Vertices: make([]mgl64.Vec3, 0, len(quads)*6)}
	for _, q := range quads {
		v := [4]mgl64.Vec3{}
		for i, p := range q {
			v[i] = c(p[0], p[1], p[2])
		}
		mesh.Vertices = append(mesh.Vertices, v[0], v[1], v[2], v[0], v[2], v[3])
	}
	return mesh
}
