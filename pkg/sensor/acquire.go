package sensor

import (
	"context"
	"fmt"
	"time"

	jww "github.com/spf13/jwalterweatherman"
)

// QueryFunc returns one raw response from the device.
type QueryFunc func(ctx context.Context) ([]byte, error)

// OpenerQuery adapts an Opener into a QueryFunc that reopens the device for
// every exchange.
func OpenerQuery(open Opener, settle time.Duration) QueryFunc {
	return func(ctx context.Context) ([]byte, error) {
		return Query(ctx, open, settle)
	}
}

// Acquire polls the device until a frame carries all expected channels or
// maxTries rounds have been used. Channels still missing after the last round
// are returned as Absent, so the set always has expected entries. A transport
// or decode failure only counts as an empty round. The error is non-nil only
// when ctx is done.
func Acquire(ctx context.Context, query QueryFunc, expected, maxTries int) (ReadingSet, Report, error) {
	if maxTries < 1 {
		maxTries = 1
	}
	var frame Frame
	tries := 0
	for {
		data, err := query(ctx)
		if ctx.Err() != nil {
			rs := fill(frame, expected)
			return rs, report(rs, tries), ctx.Err()
		}
		frame = decodeRound(data, err, expected)
		tries++
		if len(frame) == expected || tries >= maxTries {
			break
		}
		jww.DEBUG.Printf("try %d/%d: %d of %d channels", tries, maxTries, len(frame), expected)
	}

	rs := fill(frame, expected)
	return rs, report(rs, tries), nil
}

func decodeRound(data []byte, err error, expected int) Frame {
	if err != nil {
		jww.DEBUG.Printf("query: %v", err)
		return Frame{}
	}
	frame, err := DecodeFrame(data, expected)
	if err != nil {
		jww.DEBUG.Printf("decode: %v", err)
		return Frame{}
	}
	jww.TRACE.Printf("frame % x", data)
	return frame
}

func fill(frame Frame, expected int) ReadingSet {
	rs := make(ReadingSet, expected)
	for c := 1; c <= expected; c++ {
		if env, ok := frame[c]; ok {
			rs[c-1] = reading(c, env)
		} else {
			rs[c-1] = Absent(c)
		}
	}
	return rs
}

func report(rs ReadingSet, tries int) Report {
	missing := rs.Missing()
	return Report{TriesUsed: tries, AllPresent: len(missing) == 0, Missing: missing}
}

func (r Report) String() string {
	if r.AllPresent {
		return fmt.Sprintf("all channels present after %d tries", r.TriesUsed)
	}
	return fmt.Sprintf("channels %v missing after %d tries", r.Missing, r.TriesUsed)
}
