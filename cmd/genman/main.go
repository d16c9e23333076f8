//go:build ignore

// genman generates the nettest man page.
// Usage: go run cmd/genman/main.go > nettest.1
package main

import (
	"fmt"
	"os"
)

func main() {
	// Use a fixed date for reproducible builds/CI
	date := "October 2026"

	manpage := fmt.Sprintf(`.TH NETTEST 1 "%s" "nettest 0.1.0" "User Commands"
.SH NAME
nettest \- UDP throughput and ordering probe
.SH SYNOPSIS
.B nettest
[\fIflags\fR] \fIlocal\-addr\fR \fIpeer\-addr\fR
.SH DESCRIPTION
.B nettest
measures one direction of a UDP path. A sender floods a receiver with
datagrams carrying a 4\-byte big\-endian sequence number. The receiver reports
throughput for every one\-second window, then a summary with total bytes,
average throughput, out\-of\-order and duplicated packets.
.PP
Both sides first perform a handshake: the sender sends \fBInit\fR and waits
for an \fBInit\fR back; the receiver waits for \fBInit\fR and echoes it. When
the sender is done it sends \fBexit\fR, which ends reception.
.SH OPTIONS
.TP
.BR \-m ", " \-\-mode " \fIrole\fR"
\fBreceiver\fR (default) or \fBsender\fR. \fBserver\fR/\fB0\fR and
\fBclient\fR/\fB1\fR are accepted as aliases.
.TP
.BR \-l ", " \-\-packet\-length " \fIbytes\fR"
Datagram length including the header, 4 to 65507 (default 1024).
.TP
.BR \-c ", " \-\-count " \fIn\fR"
Sender: stop after \fIn\fR packets. Mutually exclusive with \fB\-\-duration\fR.
.TP
.BR \-d ", " \-\-duration " \fIduration\fR"
Sender: stop after this long (default 20s).
.TP
.B \-\-pps \fIrate\fR
Packets per second. 0 sends as fast as possible.
.TP
.B \-\-burst \fIn\fR
Use a token bucket of \fIn\fR packets instead of evenly spaced sends.
.TP
.B \-\-random\-payload
Fill the payload with random bytes instead of zeros.
.TP
.B \-\-seed \fIint\fR
Random seed for the payload (0 = random).
.TP
.B \-\-handshake\-timeout \fIduration\fR
Give up when no \fBInit\fR arrives in time (default: wait forever).
.TP
.B \-\-idle\-timeout \fIduration\fR
Receiver: end reception after this much silence.
.TP
.B \-\-tos \fIbyte\fR
IP TOS / IPv6 traffic class for outgoing datagrams.
.TP
.B \-\-format \fIstyle\fR
Interval line style: \fBplain\fR ("0 \- 1: 12.000 KB/s") or \fBbracket\fR
("[0 \- 1] : [12.000 KB/s]").
.TP
.B \-\-log\-dir \fIdir\fR
Receiver: append the report to \fIdir\fR/nettest_benchmark_\fItimestamp\fR.txt
(default \fBresults\fR, empty disables).
.TP
.B \-\-metrics\-addr \fIaddr\fR
Serve Prometheus metrics on \fIaddr\fR at /metrics.
.TP
.BR \-P ", " \-\-preset " \fIname\fR"
Use a preset. See \fBPRESETS\fR.
.TP
.BR \-L ", " \-\-list\-presets
List available presets.
.TP
.B \-\-debug
Verbose diagnostics on stderr.
.TP
.BR \-h ", " \-\-help
Show help message.
.TP
.BR \-v ", " \-\-version
Show version information.
.SH PRESETS
.TP
.B thesis
64 B at 90 pps for 20s
.TP
.B paced
1200 B at 100 pps for 10s
.TP
.B bulk
10000 x 1200 B, unlimited rate
.TP
.B bursty
1200 B at 1000 pps in bursts of 50 for 10s
.TP
.B tiny
header\-only datagrams, unlimited rate, 10s
.TP
.B jumbo
8972 B (9000 MTU) at 500 pps for 10s
.SH EXAMPLES
Receiver that echoes the handshake to whoever sent it:
.PP
.RS
.nf
nettest \-m receiver 0.0.0.0:1797 \-
.fi
.RE
.PP
Sender at 1000 pps for 10 seconds:
.PP
.RS
.nf
nettest \-m sender \-l 1200 \-\-pps 1000 \-d 10s 0.0.0.0:1798 10.0.0.2:1797
.fi
.RE
.PP
Turn a results log into CSV:
.PP
.RS
.nf
go run ./cmd/intervals results/nettest_benchmark_*.txt
.fi
.RE
.SH EXIT STATUS
.TP
.B 0
Run completed (including an idle timeout on the receiver).
.TP
.B 1
Socket, handshake or transfer failure.
.TP
.B 2
Invalid flags or configuration.
.TP
.B 130
Interrupted by SIGINT or SIGTERM. The summary is still printed.
.SH NOTES
.IP \(bu 2
Datagrams shorter than the 4\-byte header are counted and reported as
malformed but do not take part in ordering checks.
.IP \(bu 2
Ordering is judged against the previous datagram only, so a single swapped
pair counts as two out\-of\-order packets.
.IP \(bu 2
The exit message is sent once and may be lost; use \fB\-\-idle\-timeout\fR on
lossy paths.
.SH SEE ALSO
.BR iperf3 (1),
.BR ping (8)
`, date)

	fmt.Fprint(os.Stdout, manpage)
}
