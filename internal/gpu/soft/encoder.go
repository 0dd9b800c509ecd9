package soft

import (
	"errors"
	"fmt"

	"github.com/zsiec/reel/internal/gpu"
)

type viewport struct {
	x, y, w, h float32
	set        bool
}

type drawCall struct {
	pipeline *renderPipeline
	group    *bindGroup
	vertices *buffer
	indices  *buffer
	format   gpu.IndexFormat
	viewport viewport
	count    int
}

type renderPass struct {
	enc   *commandEncoder
	desc  gpu.RenderPassDescriptor
	draws []drawCall
	ended bool

	pipeline *renderPipeline
	group    *bindGroup
	vertices *buffer
	indices  *buffer
	format   gpu.IndexFormat
	viewport viewport
}

type commandEncoder struct {
	label  string
	passes []*renderPass
	open   *renderPass
	err    error
	done   bool
}

type commandBuffer struct {
	label     string
	passes    []*renderPass
	submitted bool
}

func (e *commandEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *commandEncoder) BeginRenderPass(desc gpu.RenderPassDescriptor) gpu.RenderPassEncoder {
	p := &renderPass{enc: e, desc: desc}
	switch {
	case e.done:
		e.fail(fmt.Errorf("soft: encoder %q: already finished", e.label))
	case e.open != nil:
		e.fail(fmt.Errorf("soft: encoder %q: pass %q still open", e.label, e.open.desc.Label))
	case desc.Target == nil:
		e.fail(fmt.Errorf("soft: pass %q: no target", desc.Label))
	}
	e.open = p
	e.passes = append(e.passes, p)
	return p
}

func (e *commandEncoder) Finish() (gpu.CommandBuffer, error) {
	if e.open != nil {
		e.fail(fmt.Errorf("soft: encoder %q: pass %q not ended", e.label, e.open.desc.Label))
	}
	e.done = true
	if e.err != nil {
		return nil, e.err
	}
	return &commandBuffer{label: e.label, passes: e.passes}, nil
}

func (p *renderPass) SetPipeline(rp gpu.RenderPipeline) {
	pl, ok := rp.(*renderPipeline)
	if !ok {
		p.enc.fail(errors.New("soft: foreign render pipeline"))
		return
	}
	p.pipeline = pl
}

func (p *renderPass) SetBindGroup(index int, g gpu.BindGroup) {
	bg, ok := g.(*bindGroup)
	if !ok || index != 0 {
		p.enc.fail(fmt.Errorf("soft: unsupported bind group at index %d", index))
		return
	}
	p.group = bg
}

func (p *renderPass) SetVertexBuffer(slot int, b gpu.Buffer) {
	vb, ok := b.(*buffer)
	if !ok || slot != 0 {
		p.enc.fail(fmt.Errorf("soft: unsupported vertex buffer at slot %d", slot))
		return
	}
	p.vertices = vb
}

func (p *renderPass) SetIndexBuffer(b gpu.Buffer, format gpu.IndexFormat) {
	ib, ok := b.(*buffer)
	if !ok {
		p.enc.fail(errors.New("soft: foreign index buffer"))
		return
	}
	p.indices, p.format = ib, format
}

func (p *renderPass) SetViewport(x, y, width, height, _, _ float32) {
	if width <= 0 || height <= 0 {
		p.enc.fail(fmt.Errorf("soft: empty viewport %gx%g", width, height))
		return
	}
	p.viewport = viewport{x: x, y: y, w: width, h: height, set: true}
}

func (p *renderPass) DrawIndexed(indexCount, instanceCount int) {
	if p.ended {
		p.enc.fail(errors.New("soft: draw after pass end"))
		return
	}
	if p.pipeline == nil || p.group == nil || p.vertices == nil || p.indices == nil {
		p.enc.fail(fmt.Errorf("soft: pass %q: draw with incomplete state", p.desc.Label))
		return
	}
	if instanceCount < 1 {
		return
	}
	p.draws = append(p.draws, drawCall{
		pipeline: p.pipeline,
		group:    p.group,
		vertices: p.vertices,
		indices:  p.indices,
		format:   p.format,
		viewport: p.viewport,
		count:    indexCount,
	})
}

func (p *renderPass) End() {
	if p.ended {
		return
	}
	p.ended = true
	if p.enc.open == p {
		p.enc.open = nil
	}
}
