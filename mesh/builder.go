package mesh

// Builder collects vertices into an indexed mesh. Equal vertices share one
// entry in the vertex list; the first occurrence assigns the index.
type Builder struct {
	Vertices []Vertex
	Indices  []uint32

	unique map[Vertex]uint32
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		unique: make(map[Vertex]uint32),
	}
}

// Add appends v to the index list and returns its index.
func (b *Builder) Add(v Vertex) uint32 {
	if b.unique == nil {
		b.unique = make(map[Vertex]uint32)
	}

	index, ok := b.unique[v]
	if !ok {
		index = uint32(len(b.Vertices))
		b.unique[v] = index
		b.Vertices = append(b.Vertices, v)
	}

	b.Indices = append(b.Indices, index)
	return index
}

// Unique returns the number of distinct vertices added so far.
func (b *Builder) Unique() int {
	return len(b.unique)
}

// Mesh returns the built vertex and index lists.
func (b *Builder) Mesh() Mesh {
	return Mesh{
		Vertices: b.Vertices,
		Indices:  b.Indices,
	}
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}
