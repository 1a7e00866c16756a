package grades

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/papillon-hub/papillon-core/internal/domain/record"
)

// memoKey identifies one accumulation over one grade list content. The hash
// covers every field that influences the result, so two lists with equal
// content share an entry and any mutation produces a fresh key.
type memoKey struct {
	hash       uint64
	target     Target
	useMath    bool
	reconsider bool
}

func buildMemoKey(grades []record.Grade, target Target, useMath, reconsider bool) memoKey {
	h := fnv.New64a()
	var buf [8]byte

	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}
	writeValue := func(v record.GradeValue) {
		var flags byte
		if v.Valid {
			flags |= 1
		}
		if v.Disabled {
			flags |= 2
		}
		h.Write([]byte{flags})
		writeFloat(v.Value)
	}

	for _, g := range grades {
		h.Write([]byte(g.SubjectKey()))
		h.Write([]byte{0})
		writeValue(slot(g, target))
		writeValue(g.OutOf)
		writeFloat(g.Coefficient)
		var flags byte
		if g.IsBonus {
			flags |= 1
		}
		if g.IsOptional {
			flags |= 2
		}
		h.Write([]byte{flags})
	}

	return memoKey{
		hash:       h.Sum64(),
		target:     target,
		useMath:    useMath,
		reconsider: reconsider,
	}
}
