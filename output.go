package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"oci-compliance-report/internal/inventory"
	"oci-compliance-report/internal/report"
	"oci-compliance-report/internal/scope"
)

const cveLineWidth = 65

// TextOptions controls the text rendering.
type TextOptions struct {
	ShowDetails bool
	// Names resolves compartment names of records; nil prints OCIDs.
	Names *scope.NameCache
}

// outputReport routes output to the appropriate format function
func outputReport(ctx context.Context, w io.Writer, rep *report.Report, format string, opts TextOptions) error {
	switch format {
	case "text":
		return outputText(ctx, w, rep, opts)
	case "json":
		return outputJSON(w, rep)
	case "csv":
		return outputCSV(w, rep)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// outputReportToFile writes the report to filename, or stdout when it is empty
func outputReportToFile(ctx context.Context, rep *report.Report, format, filename string, opts TextOptions) error {
	if filename == "" {
		return outputReport(ctx, os.Stdout, rep, format, opts)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := outputReport(ctx, file, rep, format, opts); err != nil {
		return err
	}
	return file.Close()
}

// outputJSON outputs the report in JSON format with pretty printing
func outputJSON(w io.Writer, rep *report.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rep)
}

// outputCSV writes one row per record
func outputCSV(w io.Writer, rep *report.Report) error {
	writer := csv.NewWriter(w)

	header := []string{"Kind", "CompartmentID", "CompartmentName", "ID", "Name", "Partial", "Details"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, e := range rep.Entries() {
		for _, rec := range e.Records {
			details, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to encode %s record %s: %w", e.Kind, rec.ID(), err)
			}
			row := []string{
				string(e.Kind),
				e.Scope.ID,
				e.Scope.Name,
				rec.ID(),
				rec.Name(),
				strconv.FormatBool(rec.Partial()),
				string(details),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// outputText renders the overview and, with details, one section per kind
func outputText(ctx context.Context, w io.Writer, rep *report.Report, opts TextOptions) error {
	p := &printer{w: w}
	totals := rep.Totals()

	p.line()
	p.line("        Patch Compliance Report")
	p.line("        =======================")
	p.line()
	if rep.InstanceGroupID != "" {
		p.linef("Managed Instance Group ID: %s", rep.InstanceGroupID)
	}
	p.line()
	p.line(overviewSentence(totals.ManagedHosts, totals.VulnerableHosts))
	p.line()

	p.linef("Coverage: %s (%d compartment%s scanned)", rep.Coverage(), totals.Scopes, plural(totals.Scopes))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range inventory.AllKinds {
		if n, ok := totals.Records[k]; ok {
			fmt.Fprintf(tw, "  %s\t%d\n", k, n)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if totals.PartialRecords > 0 {
		p.linef("  %d record%s incomplete", totals.PartialRecords, plural(totals.PartialRecords))
	}
	if failures := rep.Failures(); len(failures) > 0 {
		p.line()
		p.line("Failed collections:")
		for _, f := range failures {
			p.linef("  %s (%s) %s: %s", f.Scope.Name, f.Scope.ID, f.Kind, f.Error)
		}
	}
	p.line()

	if opts.ShowDetails {
		writeVulnerableHosts(ctx, p, rep, opts)
		writeKindSections(ctx, p, rep, opts)
	}
	return p.err
}

// overviewSentence is the headline of the patch report.
func overviewSentence(total, vulnerable int) string {
	count := "None"
	if vulnerable > 0 {
		count = strconv.Itoa(vulnerable)
	}
	verb := "is"
	if vulnerable > 1 {
		verb = "are"
	}
	return fmt.Sprintf("Detected out of %d managed instance%s, %s %s missing security patches!", total, plural(total), count, verb)
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

func writeVulnerableHosts(ctx context.Context, p *printer, rep *report.Report, opts TextOptions) {
	for _, f := range rep.VulnerableHosts() {
		p.linef("Managed Instance %s (%s)", f.Host.DisplayName, f.Host.HostID)
		if rep.InstanceGroupID != "" && opts.Names != nil && f.Host.CompartmentID != "" {
			p.linef(" in compartment %s", opts.Names.Name(ctx, f.Host.CompartmentID))
		}
		p.line(" has the following outstanding security patches:")
		for _, u := range f.Host.SecurityUpdates {
			p.linef("  %s", u.DisplayName)
			for _, l := range wrapCVEs(u.CVEs) {
				p.line(l)
			}
		}
		p.line()
	}
}

// wrapCVEs lays CVE ids out in 18-column cells, breaking once a line reaches cveLineWidth.
func wrapCVEs(cves []string) []string {
	if len(cves) == 0 {
		return nil
	}

	var lines []string
	prefix := "      CVEs:"
	line := ""
	for i, cve := range cves {
		line += fmt.Sprintf(" %-17s", cve+",")
		if len(line) < cveLineWidth {
			continue
		}
		if i < len(cves)-1 {
			lines = append(lines, prefix+strings.TrimRight(line, " "))
		} else {
			lines = append(lines, prefix+strings.TrimRight(line, ", "))
		}
		prefix = strings.Repeat(" ", 11)
		line = ""
	}
	if line != "" {
		lines = append(lines, prefix+strings.TrimRight(line, ", "))
	}
	return lines
}

func writeKindSections(ctx context.Context, p *printer, rep *report.Report, opts TextOptions) {
	entries := rep.Entries()
	for _, k := range inventory.AllKinds {
		if k == inventory.KindPatch {
			continue
		}
		var section []report.Entry
		for _, e := range entries {
			if e.Kind == k && len(e.Records) > 0 {
				section = append(section, e)
			}
		}
		if len(section) == 0 {
			continue
		}

		title := kindTitles[k]
		p.line(title)
		p.line(strings.Repeat("-", len(title)))
		for _, e := range section {
			p.linef("Compartment %s (%s)", compartmentName(ctx, opts.Names, e.Scope), e.Scope.ID)
			records := e.Records
			if k == inventory.KindAnnouncement {
				records = latestOnly(e.Records)
			}
			for _, rec := range records {
				for _, l := range describe(rec) {
					p.line("  " + l)
				}
				if rec.Partial() {
					p.line("    incomplete: " + partialReason(rec))
				}
			}
		}
		p.line()
	}
}

var kindTitles = map[inventory.Kind]string{
	inventory.KindInstanceGroup: "Managed Instance Groups",
	inventory.KindObjectStorage: "Object Storage Backups",
	inventory.KindFileStorage:   "File Storage Snapshots",
	inventory.KindCloudGuard:    "Cloud Guard Problems",
	inventory.KindDatabase:      "Database Systems",
	inventory.KindLoadBalancer:  "Load Balancers",
	inventory.KindVPN:           "IPSec VPN Tunnels",
	inventory.KindCompute:       "Compute CPU Utilization",
	inventory.KindAnnouncement:  "Latest Oracle Announcements",
}

// latestOnly keeps the most recently changed announcement of a compartment.
func latestOnly(records []inventory.Record) []inventory.Record {
	latest, ok := inventory.LatestAnnouncement(records)
	if !ok {
		return nil
	}
	return []inventory.Record{latest}
}

func compartmentName(ctx context.Context, names *scope.NameCache, s scope.Scope) string {
	if s.Name != "" || names == nil {
		return s.Name
	}
	return names.Name(ctx, s.ID)
}

func partialReason(rec inventory.Record) string {
	if r, ok := rec.(interface{ PartialReason() string }); ok {
		return r.PartialReason()
	}
	return ""
}

// describe renders one record as indented lines.
func describe(rec inventory.Record) []string {
	switch r := rec.(type) {
	case inventory.InstanceGroup:
		lines := []string{fmt.Sprintf("%s %s, %d managed instance%s", r.DisplayName, r.OSFamily, r.MemberCount, plural(r.MemberCount))}
		if len(r.Members) > 0 {
			lines = append(lines, "  members: "+strings.Join(r.Members, ", "))
		}
		return lines
	case inventory.Announcement:
		lines := []string{
			fmt.Sprintf("Type: %s", r.Type),
			fmt.Sprintf("Ticket Number: %s", r.TicketNumber),
			fmt.Sprintf("Summary: %s", r.Summary),
			fmt.Sprintf("Affected Regions: %s", strings.Join(r.AffectedRegions, ", ")),
			fmt.Sprintf("Services: %s", strings.Join(r.Services, ", ")),
		}
		for _, tf := range []inventory.TimeField{r.TimeOne, r.TimeTwo} {
			if label := tf.Label(); label != "" {
				lines = append(lines, fmt.Sprintf("%s: %s", label, formatTime(tf.Value)))
			}
		}
		return append(lines, fmt.Sprintf("Update Time: %s", formatTime(r.LastChanged())))
	case inventory.Bucket:
		lines := []string{fmt.Sprintf("%s: %d object%s matching %s", r.BucketName, len(r.Objects), plural(len(r.Objects)), r.Prefix)}
		for _, o := range r.Objects {
			lines = append(lines, fmt.Sprintf("  %s  %s  %s", o.Name, formatTime(o.TimeCreated), humanize.IBytes(uint64(max(o.Size, 0)))))
		}
		return lines
	case inventory.FileSystem:
		latest := r.LatestSnapshot()
		if latest == "" {
			latest = "none"
		}
		return []string{fmt.Sprintf("%s (%s) %s, %s metered, %d snapshot%s, latest %s",
			r.DisplayName, r.AvailabilityDomain, r.State, humanize.IBytes(uint64(max(r.MeteredBytes, 0))), len(r.Snapshots), plural(len(r.Snapshots)), latest)}
	case inventory.Problem:
		return []string{fmt.Sprintf("%s %s [%s] rule %s, last detected %s", r.RiskLevel, r.ResourceName, r.ResourceType, r.DetectorRuleID, formatTime(r.TimeLastDetected))}
	case inventory.DBSystem:
		return []string{fmt.Sprintf("%s %s %s, version %s, host %s, %s", r.DisplayName, r.Shape, r.DatabaseEdition, r.DBVersion, r.Hostname, r.State)}
	case inventory.LoadBalancer:
		lines := []string{fmt.Sprintf("%s %s %s, IPs %s", r.DisplayName, r.Shape, r.State, strings.Join(r.IPAddresses, ", "))}
		if len(r.Hostnames) > 0 {
			lines = append(lines, "  hostnames: "+strings.Join(r.Hostnames, ", "))
		}
		for _, bs := range r.BackendSets {
			lines = append(lines, fmt.Sprintf("  backend set %s (%s): %s", bs.Name, bs.Policy, strings.Join(bs.Backends, ", ")))
		}
		return lines
	case inventory.IPSecConnection:
		lines := []string{fmt.Sprintf("%s %s", r.DisplayName, r.State)}
		for _, t := range r.Tunnels {
			lines = append(lines, fmt.Sprintf("  tunnel %s %s %s vpn %s cpe %s", t.DisplayName, t.Status, t.IKEVersion, t.VPNIP, t.CPEIP))
			if t.PhaseOne != nil {
				lines = append(lines, fmt.Sprintf("    phase one: %s %s %s lifetime %ds established %t",
					t.PhaseOne.Authentication, t.PhaseOne.Encryption, t.PhaseOne.DHGroup, t.PhaseOne.Lifetime, t.PhaseOne.Established))
			}
			if t.PhaseTwo != nil {
				lines = append(lines, fmt.Sprintf("    phase two: %s %s %s lifetime %ds established %t pfs %t",
					t.PhaseTwo.Authentication, t.PhaseTwo.Encryption, t.PhaseTwo.DHGroup, t.PhaseTwo.Lifetime, t.PhaseTwo.Established, t.PhaseTwo.PFSEnabled))
			}
		}
		return lines
	case inventory.ComputeInstance:
		if r.CPU == nil {
			return []string{fmt.Sprintf("%s %s %s, no utilization data", r.DisplayName, r.Shape, r.State)}
		}
		return []string{fmt.Sprintf("%s %s %s, CPU mean %.1f%% max %.1f%% over %d sample%s",
			r.DisplayName, r.Shape, r.State, r.CPU.Mean(), r.CPU.Max(), len(r.CPU.Points), plural(len(r.CPU.Points)))}
	}
	return []string{fmt.Sprintf("%s (%s)", rec.Name(), rec.ID())}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// printer remembers the first write error so rendering code can stay linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(parts ...string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, strings.Join(parts, ""))
}

func (p *printer) linef(format string, args ...interface{}) {
	p.line(fmt.Sprintf(format, args...))
}
