// Package output renders lookup results and errors for the terminal.
//
// Nothing here returns an error: every failure to render falls back to a
// plainer form so that reaching the printer always produces output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/brojonat/lasttx/service/solana"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/itchyny/gojq"
	"github.com/rodaine/table"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatSummary = "summary"
)

// Formats lists every supported format, in help order.
var Formats = []string{FormatText, FormatJSON, FormatYAML, FormatSummary}

// Messages printed verbatim.
const (
	NoTransactionsMessage = "No transactions found for the wallet."
	notFoundDetails       = "not found (the node returned no record)"
)

// ValidFormat reports whether f is a supported format.
func ValidFormat(f string) bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// CompileFilter parses and compiles a jq expression.
func CompileFilter(expr string) (*gojq.Code, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", expr, err)
	}
	return code, nil
}

// Printer writes results to Out and errors to Err.
type Printer struct {
	Out     io.Writer
	Err     io.Writer
	Format  string
	Filter  *gojq.Code // optional; applied to the JSON document
	NoColor bool
}

// Document is the structured form of a Result used by the json, yaml and jq
// outputs.
type Document struct {
	Wallet          string                    `json:"wallet" yaml:"wallet"`
	LatestSignature *solana.SignatureRecord   `json:"latest_signature" yaml:"latest_signature"`
	Transaction     *rpc.GetTransactionResult `json:"transaction" yaml:"transaction"`
}

// NewDocument builds the Document for res.
func NewDocument(res *solana.Result) Document {
	doc := Document{}
	if res == nil {
		return doc
	}
	doc.Wallet = res.Wallet.String()
	doc.LatestSignature = res.Signature
	doc.Transaction = res.Transaction
	return doc
}

// Result prints the outcome of a lookup.
func (p *Printer) Result(res *solana.Result) {
	if p.Filter != nil {
		p.filtered(res)
		return
	}

	switch p.Format {
	case FormatJSON:
		fmt.Fprintln(p.Out, indentJSON(NewDocument(res)))
	case FormatYAML:
		fmt.Fprint(p.Out, toYAML(NewDocument(res)))
	case FormatSummary:
		p.summary(res)
	default:
		p.text(res)
	}
}

// Error prints err as a single line.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	msg := strings.ReplaceAll(err.Error(), "\n", "; ")
	fmt.Fprintf(p.Err, "%s %s\n", p.paint(color.FgRed, "Error:"), msg)
}

// Usage prints the one-line usage message for command.
func (p *Printer) Usage(command string) {
	fmt.Fprintf(p.Err, "Usage: %s <WALLET_ADDRESS>\n", command)
}

func (p *Printer) text(res *solana.Result) {
	if !res.Found() {
		fmt.Fprintln(p.Out, NoTransactionsMessage)
		return
	}

	fmt.Fprintf(p.Out, "%s %s\n", p.paint(color.Bold, "Latest Transaction Signature:"), res.Signature.Signature)

	details := notFoundDetails
	if res.Transaction != nil {
		details = indentJSON(res.Transaction)
	}
	fmt.Fprintf(p.Out, "%s %s\n", p.paint(color.Bold, "Transaction Details:"), details)
}

func (p *Printer) summary(res *solana.Result) {
	if !res.Found() {
		fmt.Fprintln(p.Out, NoTransactionsMessage)
		return
	}

	s, err := solana.Summarize(res.Signature, res.Transaction)
	if err != nil && s == nil {
		p.text(res)
		return
	}

	tbl := table.New("Field", "Value").WithWriter(p.Out)
	if !p.NoColor {
		tbl.WithHeaderFormatter(color.New(color.FgGreen, color.Underline).SprintfFunc())
	}

	tbl.AddRow("Wallet", res.Wallet.String())
	tbl.AddRow("Signature", s.Signature)
	tbl.AddRow("Slot", s.Slot)
	tbl.AddRow("Block Time", formatTime(s.BlockTime))
	tbl.AddRow("Status", s.Status)
	if res.Transaction == nil {
		tbl.AddRow("Details", notFoundDetails)
		tbl.Print()
		return
	}
	tbl.AddRow("Version", s.Version)
	tbl.AddRow("Fee (lamports)", s.Fee)
	tbl.AddRow("Compute Units", optionalUint(s.ComputeUnits))
	tbl.AddRow("Instructions", s.InstructionCount)
	tbl.AddRow("Fee Payer", optional(s.FeePayer))
	if s.Amount > 0 {
		tbl.AddRow("Amount", s.Amount)
		tbl.AddRow("Token Mint", orDefault(s.TokenMint, "SOL"))
		tbl.AddRow("From", optional(s.FromAddress))
	}
	if s.Memo != nil {
		tbl.AddRow("Memo", *s.Memo)
	}
	tbl.Print()

	if err != nil {
		fmt.Fprintf(p.Err, "warning: %v\n", err)
	}
}

func (p *Printer) filtered(res *solana.Result) {
	input, err := genericJSON(NewDocument(res))
	if err != nil {
		fmt.Fprintf(p.Err, "jq: %v\n", err)
		return
	}

	iter := p.Filter.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return
		}
		if err, isErr := v.(error); isErr {
			fmt.Fprintf(p.Err, "jq: %v\n", err)
			return
		}
		if s, isString := v.(string); isString {
			fmt.Fprintln(p.Out, s)
			continue
		}
		fmt.Fprintln(p.Out, indentJSON(v))
	}
}

func (p *Printer) paint(attr color.Attribute, s string) string {
	if p.NoColor {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

func indentJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}

// genericJSON round-trips v through encoding/json so gojq and yaml see plain
// maps, slices and scalars.
func genericJSON(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toYAML(v interface{}) string {
	generic, err := genericJSON(v)
	if err != nil {
		return fmt.Sprintf("%+v\n", v)
	}
	data, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Sprintf("%+v\n", v)
	}
	return string(data)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func optional(s *string) string {
	return orDefault(s, "-")
}

func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

func optionalUint(v *uint64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
