package gpu

import (
	"encoding/binary"
	"math"
)

// Vertex attribute locations shared by every shader in this package.
const (
	LocationPosition = 0
	LocationTexCoord = 1
)

const vertexStride = 5 * 4

// QuadLayout is the vertex layout of the unit quad: a float32x3 clip-space
// position followed by a float32x2 texture coordinate.
var QuadLayout = VertexBufferLayout{
	ArrayStride: vertexStride,
	Attributes: []VertexAttribute{
		{Offset: 0, ShaderLocation: LocationPosition, Format: VertexFormatFloat32x3},
		{Offset: 12, ShaderLocation: LocationTexCoord, Format: VertexFormatFloat32x2},
	},
}

// quadVertices covers clip space with texture row 0 at the top.
var quadVertices = [4][5]float32{
	{-1, 1, 0, 0, 0},
	{-1, -1, 0, 0, 1},
	{1, -1, 0, 1, 1},
	{1, 1, 0, 1, 0},
}

var quadIndices = []uint16{0, 1, 2, 2, 3, 0}

// Quad holds the vertex and index buffers of the unit quad.
type Quad struct {
	vertices Buffer
	indices  Buffer
}

// NewQuad uploads the quad geometry to dev.
func NewQuad(dev Device, label string) (*Quad, error) {
	vb := make([]byte, 0, len(quadVertices)*vertexStride)
	for _, v := range quadVertices {
		for _, c := range v {
			vb = binary.LittleEndian.AppendUint32(vb, math.Float32bits(c))
		}
	}
	ib := make([]byte, 0, len(quadIndices)*2)
	for _, i := range quadIndices {
		ib = binary.LittleEndian.AppendUint16(ib, i)
	}

	vertices, err := dev.CreateBuffer(BufferDescriptor{Label: label + "-vertices", Usage: BufferUsageVertex, Contents: vb})
	if err != nil {
		return nil, err
	}
	indices, err := dev.CreateBuffer(BufferDescriptor{Label: label + "-indices", Usage: BufferUsageIndex, Contents: ib})
	if err != nil {
		vertices.Destroy()
		return nil, err
	}
	return &Quad{vertices: vertices, indices: indices}, nil
}

// Draw binds the quad buffers and issues one indexed draw.
func (q *Quad) Draw(pass RenderPassEncoder) {
	pass.SetVertexBuffer(0, q.vertices)
	pass.SetIndexBuffer(q.indices, IndexFormatUint16)
	pass.DrawIndexed(len(quadIndices), 1)
}

// Destroy releases the quad buffers.
func (q *Quad) Destroy() {
	q.vertices.Destroy()
	q.indices.Destroy()
}
