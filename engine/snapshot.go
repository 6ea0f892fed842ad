package engine

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"

	"github.com/ocppcore/chargepoint/message"
)

// snapshotMagic identifies a buffer as an engine snapshot before any of
// its bytes are trusted.
const snapshotMagic uint32 = 0x4F435053 // "OCPS"

// snapshotVersion is the current wire format version. RestoreSnapshot
// rejects any other value rather than guess at a migration.
const snapshotVersion byte = 1

// snapshotHeaderLen is the fixed prefix before the CBOR body: a 4-byte
// magic, a 1-byte version, a 1-byte reserved field, and a 2-byte
// big-endian body length.
const snapshotHeaderLen = 8

// snapshotSlot is one allocated pool slot as it appears in a snapshot,
// tagged with which queue it belongs to so restore can rebuild FIFO
// order without needing the original pool's slab layout.
type snapshotSlot struct {
	ID       string `cbor:"id"`
	Role     byte   `cbor:"role"`
	Type     byte   `cbor:"type"`
	Payload  []byte `cbor:"payload"`
	Expiry   int64  `cbor:"expiry"`
	Attempts int    `cbor:"attempts"`
}

// snapshotBody is the CBOR-encoded payload following the fixed header.
// Ready, Wait, and Timer are stored front-to-back so restore can
// rebuild each queue by repeated PushBack.
type snapshotBody struct {
	PoolSize int            `cbor:"pool_size"`
	TxTS     int64          `cbor:"tx_ts"`
	RxTS     int64          `cbor:"rx_ts"`
	Ready    []snapshotSlot `cbor:"ready"`
	Wait     []snapshotSlot `cbor:"wait"`
	Timer    []snapshotSlot `cbor:"timer"`
}

// SaveSnapshot serializes the engine's entire queue state (every
// allocated slot's id, role, type, payload, expiry, and attempt count,
// plus tx_ts/rx_ts) into a self-describing buffer a host can persist
// across a restart.
func (e *Engine) SaveSnapshot() ([]byte, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.saveSnapshot()
}

func (e *Engine) saveSnapshot() ([]byte, error) {
	body := snapshotBody{
		PoolSize: e.pool.len(),
		TxTS:     e.txTS,
		RxTS:     e.rxTS,
		Ready:    collectSlots(e.ready),
		Wait:     collectSlots(e.wait),
		Timer:    collectSlots(e.timer),
	}

	encoded, err := cbor.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "engine: encode snapshot body")
	}
	if len(encoded) > 0xFFFF {
		return nil, errors.New("engine: snapshot body exceeds 64KiB length field")
	}

	buf := make([]byte, snapshotHeaderLen+len(encoded))
	binary.BigEndian.PutUint32(buf[0:4], snapshotMagic)
	buf[4] = snapshotVersion
	buf[5] = 0 // reserved
	binary.BigEndian.PutUint16(buf[6:8], uint16(len(encoded)))
	copy(buf[snapshotHeaderLen:], encoded)
	return buf, nil
}

// ComputeSnapshotSize reports the exact byte length SaveSnapshot would
// produce right now, so a host can size a buffer (or check it against
// a storage quota) without discarding the encoded result.
func (e *Engine) ComputeSnapshotSize() (int, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	buf, err := e.saveSnapshot()
	if err != nil {
		return 0, err
	}
	return len(buf), nil
}

// RestoreSnapshot replaces the engine's pool and all three queues with
// the state encoded in buf. The engine's configured pool size must be
// at least as large as the snapshot's; RestoreSnapshot never grows the
// pool to fit.
func (e *Engine) RestoreSnapshot(buf []byte) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if len(buf) < snapshotHeaderLen {
		return ErrSnapshotTruncated
	}
	if binary.BigEndian.Uint32(buf[0:4]) != snapshotMagic {
		return ErrSnapshotMagic
	}
	if buf[4] != snapshotVersion {
		return ErrSnapshotVersion
	}
	bodyLen := int(binary.BigEndian.Uint16(buf[6:8]))
	if len(buf) < snapshotHeaderLen+bodyLen {
		return ErrSnapshotTruncated
	}

	var body snapshotBody
	if err := cbor.Unmarshal(buf[snapshotHeaderLen:snapshotHeaderLen+bodyLen], &body); err != nil {
		return errors.Wrap(err, "engine: decode snapshot body")
	}
	if body.PoolSize > e.pool.len() {
		return ErrSnapshotPoolTooBig
	}

	fresh := newPool(e.pool.len())
	ready := message.NewList()
	wait := message.NewList()
	timer := message.NewList()

	if err := restoreSlots(fresh, ready, body.Ready); err != nil {
		return err
	}
	if err := restoreSlots(fresh, wait, body.Wait); err != nil {
		return err
	}
	if err := restoreSlots(fresh, timer, body.Timer); err != nil {
		return err
	}

	e.pool = fresh
	e.ready = ready
	e.wait = wait
	e.timer = timer
	e.txTS = body.TxTS
	e.rxTS = body.RxTS

	e.log.Debug("snapshot restored", "ready", ready.Len(), "wait", wait.Len(), "timer", timer.Len())
	return nil
}

func collectSlots(l *message.List) []snapshotSlot {
	var out []snapshotSlot
	l.Each(func(m *message.Message) bool {
		out = append(out, snapshotSlot{
			ID:       m.ID,
			Role:     byte(m.Role),
			Type:     byte(m.Type),
			Payload:  m.Payload,
			Expiry:   m.Expiry,
			Attempts: m.Attempts,
		})
		return true
	})
	return out
}

func restoreSlots(p *pool, l *message.List, slots []snapshotSlot) error {
	for _, s := range slots {
		m := p.alloc()
		if m == nil {
			return ErrSnapshotPoolTooBig
		}
		m.ID = s.ID
		m.Role = message.Role(s.Role)
		m.Type = message.Type(s.Type)
		m.Payload = s.Payload
		m.Expiry = s.Expiry
		m.Attempts = s.Attempts
		l.PushBack(m)
	}
	return nil
}
