package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/records"
)

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return errors.Wrapf(json.Unmarshal(data, v), "decoding %s", path)
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func (cli *commandLine) importFees(path string) error {
	var recs []records.FeeRecord
	if err := readJSONFile(path, &recs); err != nil {
		return err
	}
	ctx := context.Background()
	for _, rec := range recs {
		if rec.UserID == "" {
			return errors.New("fee record without user_id")
		}
		if rec.History == nil {
			rec.History = []records.Payment{}
		}
		if err := cli.records.PutFeeRecord(ctx, rec); err != nil {
			return errors.Wrapf(err, "saving fees of %s", rec.UserID)
		}
	}
	fmt.Printf("%d fee records imported\n", len(recs))
	return nil
}

func (cli *commandLine) importAttendance(path string) error {
	var recs []records.AttendanceRecord
	if err := readJSONFile(path, &recs); err != nil {
		return err
	}
	for _, rec := range recs {
		switch {
		case rec.UserID == "":
			return errors.New("attendance record without user_id")
		case !isDate(rec.Date):
			return errors.Errorf("attendance of %s: bad date %q", rec.UserID, rec.Date)
		case rec.Status != records.StatusPresent && rec.Status != records.StatusAbsent && rec.Status != records.StatusLate:
			return errors.Errorf("attendance of %s: bad status %q", rec.UserID, rec.Status)
		}
	}
	if err := cli.records.AddAttendance(context.Background(), recs...); err != nil {
		return errors.Wrap(err, "saving attendance")
	}
	fmt.Printf("%d attendance records imported\n", len(recs))
	return nil
}
