package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
)

const (
	colID         = "id"
	colPriority   = "priority"
	colCategory   = "category"
	colDepartment = "department"
	colAssignee   = "assignee"
	colCreatedAt  = "created_at"
	colResolvedAt = "resolved_at"
	colSLA        = "sla_target_hours"
	colStatus     = "status"
	colBreached   = "breached"
)

// Header is the column order written by WriteTickets.
var Header = []string{
	colID, colPriority, colCategory, colDepartment, colAssignee,
	colCreatedAt, colResolvedAt, colSLA, colStatus, colBreached,
}

// Older exports used a space-separated timestamp without zone; read as UTC.
const legacyTimeLayout = "2006-01-02 15:04:05"

// WriteTickets writes the header and one row per ticket.
func WriteTickets(w io.Writer, tickets []domain.Ticket) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}

	row := make([]string, len(Header))
	for i := range tickets {
		t := &tickets[i]
		row[0] = t.ID
		row[1] = t.Priority
		row[2] = t.Category
		row[3] = t.Department
		row[4] = t.Assignee
		row[5] = formatTime(t.CreatedAt)
		row[6] = ""
		if t.ResolvedAt != nil {
			row[6] = formatTime(*t.ResolvedAt)
		}
		row[7] = strconv.FormatFloat(t.SLATargetHours, 'f', -1, 64)
		row[8] = t.Status.String()
		row[9] = strconv.FormatBool(t.Breached)
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadTickets parses a dataset and validates every row against the taxonomy.
// Columns may appear in any order; extra columns are ignored. The first
// violation is returned as a *errors.DatasetError.
func ReadTickets(r io.Reader, taxonomy domain.Taxonomy, source string) ([]domain.Ticket, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &apperrors.DatasetError{Source: source, Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, csvError(source, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range Header {
		if _, ok := columns[name]; !ok {
			return nil, &apperrors.DatasetError{Source: source, Line: 1, Column: name, Err: errors.New("missing column")}
		}
	}

	p := rowParser{taxonomy: taxonomy, source: source, columns: columns, seen: make(map[string]int)}
	var tickets []domain.Ticket
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(source, err)
		}
		line, _ := reader.FieldPos(0)

		ticket, err := p.parse(record, line)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

type rowParser struct {
	taxonomy domain.Taxonomy
	source   string
	columns  map[string]int
	seen     map[string]int
}

func (p *rowParser) parse(record []string, line int) (domain.Ticket, error) {
	fail := func(column string, format string, args ...any) error {
		return &apperrors.DatasetError{Source: p.source, Line: line, Column: column, Err: fmt.Errorf(format, args...)}
	}
	field := func(column string) string {
		idx := p.columns[column]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var t domain.Ticket

	t.ID = field(colID)
	if t.ID == "" {
		return t, fail(colID, "empty id")
	}
	if first, ok := p.seen[t.ID]; ok {
		return t, fail(colID, "duplicate id %q, first seen at line %d", t.ID, first)
	}
	p.seen[t.ID] = line

	t.Priority = field(colPriority)
	t.Category = field(colCategory)
	t.Department = field(colDepartment)
	t.Assignee = field(colAssignee)

	created, err := parseTime(field(colCreatedAt))
	if err != nil {
		return t, fail(colCreatedAt, "%v", err)
	}
	t.CreatedAt = created

	if raw := field(colResolvedAt); raw != "" {
		resolved, err := parseTime(raw)
		if err != nil {
			return t, fail(colResolvedAt, "%v", err)
		}
		t.ResolvedAt = &resolved
	}

	sla, err := strconv.ParseFloat(field(colSLA), 64)
	if err != nil {
		return t, fail(colSLA, "invalid number %q", field(colSLA))
	}
	t.SLATargetHours = sla

	status, ok := domain.ParseTicketStatus(field(colStatus))
	if !ok {
		return t, fail(colStatus, "unknown status %q", field(colStatus))
	}
	t.Status = status

	breached, err := strconv.ParseBool(field(colBreached))
	if err != nil {
		return t, fail(colBreached, "invalid boolean %q", field(colBreached))
	}
	t.Breached = breached

	if column, err := p.taxonomy.CheckTicket(&t); err != nil {
		return t, &apperrors.DatasetError{Source: p.source, Line: line, Column: column, Err: err}
	}
	return t, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(legacyTimeLayout, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", raw)
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func csvError(source string, err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &apperrors.DatasetError{Source: source, Line: parseErr.Line, Err: parseErr.Err}
	}
	return &apperrors.DatasetError{Source: source, Err: err}
}
