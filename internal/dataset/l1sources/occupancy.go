package l1sources

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/logging"
)

// Occupancy export columns.
const (
	occupancyDateCol  = 1
	occupancyBlockCol = 3
	occupancyRoomCol  = 5
	occupancyCountCol = 10
)

// LessonBlock is one timetable slot: a start time and a length in minutes.
type LessonBlock struct {
	Hour, Minute int
	Duration     int
}

// LessonBlocks is the school timetable indexed by block number.
var LessonBlocks = [...]LessonBlock{
	{7, 30, 30},
	{8, 0, 50},
	{8, 50, 50},
	{9, 40, 70},
	{10, 50, 50},
	{11, 40, 50},
	{12, 30, 50},
	{13, 20, 50},
	{14, 10, 45},
}

var occupancyRooms = map[string]dataset.Location{
	"U11": dataset.U11,
	"U18": dataset.Soba18,
	"U3A": dataset.U3A,
	"U4B": dataset.U4B,
	"U4C": dataset.U4C,
}

// ExpandBlock returns one slot per minute of the lesson block on day, all
// carrying loc and count.
func ExpandBlock(day dataset.Day, block int, loc dataset.Location, count int) ([]dataset.OccupancySlot, error) {
	if block < 0 || block >= len(LessonBlocks) {
		return nil, fmt.Errorf("lesson block %d out of range [0, %d]", block, len(LessonBlocks)-1)
	}
	lb := LessonBlocks[block]
	start := day.At(lb.Hour, lb.Minute)

	slots := make([]dataset.OccupancySlot, lb.Duration)
	for i := range slots {
		slots[i] = dataset.OccupancySlot{Minute: start.Add(i), Location: loc, Count: count}
	}
	return slots, nil
}

// ParseOccupancyRow decodes one row of the occupancy export into the
// per-minute slots of its lesson block.
func ParseOccupancyRow(fields []string) ([]dataset.OccupancySlot, error) {
	ds, err := column(fields, occupancyDateCol, "date")
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(time.DateOnly, ds)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}

	bs, err := column(fields, occupancyBlockCol, "block")
	if err != nil {
		return nil, err
	}
	block, err := strconv.Atoi(bs)
	if err != nil {
		return nil, fmt.Errorf("parse block: %w", err)
	}

	room, err := column(fields, occupancyRoomCol, "room")
	if err != nil {
		return nil, err
	}
	loc, ok := occupancyRooms[room]
	if !ok {
		return nil, fmt.Errorf("unknown room %q", room)
	}

	cs, err := column(fields, occupancyCountCol, "count")
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(cs)
	if err != nil {
		return nil, fmt.Errorf("parse count: %w", err)
	}

	return ExpandBlock(dataset.MinuteOf(date).Day(), block, loc, count)
}

// DecodeOccupancy reads an occupancy export with one header row.
func (d Decoder) DecodeOccupancy(r io.Reader) ([]dataset.OccupancySlot, Stats, error) {
	recs, bad, err := d.readRecords(r, SourceOccupancy, 1)
	if err != nil {
		return nil, Stats{}, err
	}
	out, stats := decodeAll(d, SourceOccupancy, recs, bad, ParseOccupancyRow)
	logging.OrNop(d.Logger).Info("decoded occupancy slots",
		zap.Int("rows", stats.Rows), zap.Int("skipped", stats.Skipped), zap.Int("slots", len(out)))
	return out, stats, nil
}
