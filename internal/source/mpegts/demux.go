package mpegts

import (
	"context"
	"errors"
	"io"
	"slices"
)

// unit is one reassembled payload: a PAT, a PMT or a PES packet.
type unit struct {
	pid      uint16
	programs []program
	streams  []elementary
	isPMT    bool
	pes      *pes
}

// demuxStats counts transport-level anomalies.
type demuxStats struct {
	packets         int64
	corrupt         int64
	discontinuities int64
	badSections     int64
}

// assembler collects the packets of one PID until the payload unit is
// complete: the next unit start for PES, a complete section for PSI.
type assembler struct {
	pid     uint16
	psi     bool
	lastCC  uint8
	haveCC  bool
	started bool
	buf     []byte
}

// add returns the completed payload, if any. Continuity errors drop the
// partial unit; a repeated counter is a duplicate packet and is ignored.
func (a *assembler) add(p tsPacket, stats *demuxStats) []byte {
	if p.transportErr {
		a.buf, a.started = nil, false
		return nil
	}
	if !p.hasPayload {
		return nil
	}
	if a.haveCC && !p.discontinuity {
		if p.cc == a.lastCC {
			return nil
		}
		if p.cc != (a.lastCC+1)&0x0f {
			stats.discontinuities++
			a.buf, a.started = nil, false
		}
	}
	a.lastCC, a.haveCC = p.cc, true

	var done []byte
	if p.unitStart {
		// An unfinished PSI section is useless; an unbounded PES ends here.
		if a.started && len(a.buf) > 0 && !a.psi {
			done = a.buf
		}
		a.buf, a.started = nil, true
	}
	if !a.started {
		// No unit start seen since the last loss.
		return done
	}
	a.buf = append(a.buf, p.payload...)

	if a.psi && sectionsComplete(a.buf) {
		done = a.buf
		a.buf, a.started = nil, false
	}
	return done
}

func (a *assembler) flush() []byte {
	b := a.buf
	a.buf, a.started = nil, false
	return b
}

// demuxer turns a transport stream into units. PMT PIDs are learned from
// the PAT as it is parsed.
type demuxer struct {
	ctx     context.Context
	r       io.Reader
	buf     []byte
	pmtPIDs map[uint16]bool
	asm     map[uint16]*assembler
	pending []unit
	eof     bool
	stats   demuxStats
}

func newDemuxer(ctx context.Context, r io.Reader) *demuxer {
	return &demuxer{
		ctx:     ctx,
		r:       r,
		buf:     make([]byte, packetSize),
		pmtPIDs: make(map[uint16]bool),
		asm:     make(map[uint16]*assembler),
	}
}

// next returns the next unit, or io.EOF once the stream and every partial
// unit are exhausted.
func (d *demuxer) next() (unit, error) {
	for len(d.pending) == 0 {
		if d.eof {
			return unit{}, io.EOF
		}
		if err := d.ctx.Err(); err != nil {
			return unit{}, err
		}
		if _, err := io.ReadFull(d.r, d.buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				d.eof = true
				d.drain()
				continue
			}
			return unit{}, err
		}
		d.stats.packets++
		p, err := parsePacket(d.buf)
		if err != nil {
			d.stats.corrupt++
			continue
		}
		if p.pid == pidNull {
			continue
		}
		if payload := d.assembler(p.pid).add(p, &d.stats); payload != nil {
			d.emit(p.pid, payload)
		}
	}
	u := d.pending[0]
	d.pending = d.pending[1:]
	return u, nil
}

func (d *demuxer) assembler(pid uint16) *assembler {
	a, ok := d.asm[pid]
	if !ok {
		a = &assembler{pid: pid, psi: d.isPSI(pid)}
		d.asm[pid] = a
	}
	return a
}

func (d *demuxer) isPSI(pid uint16) bool {
	return pid == pidPAT || d.pmtPIDs[pid]
}

// drain emits the partial units left at end of stream, PAT first.
func (d *demuxer) drain() {
	pids := make([]uint16, 0, len(d.asm))
	for pid := range d.asm {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	for _, pid := range pids {
		if b := d.asm[pid].flush(); len(b) > 0 {
			d.emit(pid, b)
		}
	}
}

func (d *demuxer) emit(pid uint16, payload []byte) {
	if d.isPSI(pid) {
		d.emitPSI(pid, payload)
		return
	}
	if !isPES(payload) {
		return
	}
	p, err := parsePES(payload)
	if err != nil {
		d.stats.corrupt++
		return
	}
	d.pending = append(d.pending, unit{pid: pid, pes: &p})
}

func (d *demuxer) emitPSI(pid uint16, payload []byte) {
	sections, err := splitSections(payload)
	if err != nil {
		d.stats.badSections++
	}
	for _, s := range sections {
		switch s.tableID() {
		case tablePAT:
			progs := parsePAT(s)
			for _, p := range progs {
				d.pmtPIDs[p.pmtPID] = true
				if a, ok := d.asm[p.pmtPID]; ok {
					a.psi = true
				}
			}
			d.pending = append(d.pending, unit{pid: pid, programs: progs})
		case tablePMT:
			streams, err := parsePMT(s)
			if err != nil {
				d.stats.badSections++
				continue
			}
			d.pending = append(d.pending, unit{pid: pid, isPMT: true, streams: streams})
		}
	}
}
