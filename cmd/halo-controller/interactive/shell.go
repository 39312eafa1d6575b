package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/halo-device/halo-go/pkg/device"
	"github.com/halo-device/halo-go/pkg/fault"
	"github.com/halo-device/halo-go/pkg/tagbridge"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("connect", readline.PcItem("--retry")),
	readline.PcItem("disconnect"),
	readline.PcItem("status"),
	readline.PcItem("devices"),
	readline.PcItem("brightness", readline.PcItem("get")),
	readline.PcItem("timeout", readline.PcItem("get"), readline.PcItem("never")),
	readline.PcItem("color"),
	readline.PcItem("effect"),
	readline.PcItem("reset"),
	readline.PcItem("storage"),
	readline.PcItem("tag", readline.PcItem("read"), readline.PcItem("write")),
	readline.PcItem("identity"),
	readline.PcItem("help"),
	readline.PcItem("quit"),
)

// Shell handles interactive mode for halo-controller.
type Shell struct {
	s   *Session
	out io.Writer
	rl  *readline.Instance
}

// New creates a shell reading from the terminal.
func New(s *Session) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "halo> ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{s: s, out: rl.Stdout(), rl: rl}, nil
}

func newShell(out io.Writer, s *Session) *Shell {
	return &Shell{s: s, out: out}
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (sh *Shell) Stdout() io.Writer {
	return sh.rl.Stdout()
}

// Run starts the interactive command loop.
func (sh *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer sh.rl.Close()

	sh.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := sh.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(sh.out, "Exiting...")
			cancel()
			return
		}

		if sh.Exec(ctx, line) {
			cancel()
			return
		}
	}
}

// Exec runs one command line. It returns true when the shell should exit.
func (sh *Shell) Exec(ctx context.Context, line string) (quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		sh.printHelp()
	case "connect", "c":
		sh.cmdConnect(ctx, args)
	case "disconnect":
		sh.s.Manager.Disconnect()
		sh.printf("Disconnected\n")
	case "status", "st":
		sh.cmdStatus()
	case "devices", "ls":
		sh.cmdDevices()
	case "brightness", "b":
		sh.cmdBrightness(ctx, args)
	case "timeout", "t":
		sh.cmdTimeout(ctx, args)
	case "color":
		sh.cmdColor(ctx, args)
	case "effect":
		sh.cmdEffect(ctx, args)
	case "reset":
		sh.report(sh.s.Device.Reset(ctx))
	case "storage":
		sh.cmdStorage(ctx)
	case "tag":
		sh.cmdTag(ctx, args, line)
	case "identity", "id":
		sh.cmdIdentity(args)
	case "quit", "exit", "q":
		sh.printf("Exiting...\n")
		return true
	default:
		sh.printf("Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (sh *Shell) printHelp() {
	fmt.Fprintln(sh.out, `
HALO Controller Commands:
  Connection:
    connect [--retry] [device]  - Connect (id, name or address; default: last device)
    disconnect                  - Drop the link
    status                      - Show connection and sync status
    devices                     - List remembered devices

  Settings:
    brightness [get|<10-100>]   - Read or set LED brightness
    timeout [get|never|<secs>]  - Read or set the sleep timeout
    color <#RRGGBB>             - Set LED color
    effect [name]               - Set LED effect (no name lists effects)
    reset                       - Restore factory settings
    storage                     - Show storage usage

  Tags:
    tag read                    - Read the tag on the relay
    tag write <text>            - Write text to the tag on the relay

  General:
    identity [id]               - Show or set the mirrored identity
    help                        - Show this help
    quit                        - Exit controller`)
}

func (sh *Shell) cmdConnect(ctx context.Context, args []string) {
	retry := false
	key := ""
	for _, a := range args {
		if a == "--retry" || a == "-r" {
			retry = true
			continue
		}
		key = a
	}

	desc, err := sh.s.Resolve(key)
	if err != nil {
		sh.printf("Error: %v\n", err)
		return
	}
	sh.printf("Connecting to %s...\n", desc)
	if err := sh.s.Connect(ctx, desc, retry); err != nil {
		sh.printf("Connect failed: %s\n", describe(err))
		return
	}
	sh.printf("Connected to %s\n", desc)
}

func (sh *Shell) cmdStatus() {
	m := sh.s.Manager
	deviceID, identity := sh.s.Device.Binding()

	sh.printf("State:      %s\n", m.State())
	if desc := m.Descriptor(); !desc.IsZero() {
		sh.printf("Device:     %s\n", desc)
		sh.printf("Connection: %s\n", m.ConnectionID())
	}
	sh.printf("Model:      %s\n", sh.s.Device.Model().Name())
	sh.printf("Device ID:  %s\n", orNone(deviceID))
	sh.printf("Identity:   %s\n", orNone(identity))
	sh.printf("Pending:    %d\n", sh.s.Client.Pending())
	if sh.s.Mirror.Active() {
		sh.printf("Sync:       active\n")
	} else {
		sh.printf("Sync:       inactive\n")
	}
	if sh.s.Tags.Busy() {
		sh.printf("Tag:        busy\n")
	}
}

func (sh *Shell) cmdDevices() {
	if len(sh.s.State.Devices) == 0 {
		sh.printf("No remembered devices\n")
		return
	}
	for _, d := range sh.s.State.Devices {
		marker := " "
		if d.ID == sh.s.State.LastDeviceID {
			marker = "*"
		}
		sh.printf("%s %-16s %-20s %-10s last seen %s\n",
			marker, d.ID, d.String(), orNone(d.Model), d.LastSeenAt.Format(time.DateTime))
	}
}

func (sh *Shell) cmdBrightness(ctx context.Context, args []string) {
	if len(args) == 0 || args[0] == "get" {
		v, err := sh.s.Device.GetBrightness(ctx)
		if err != nil {
			sh.printf("Error: %s\n", describe(err))
			return
		}
		sh.printf("Brightness: %d%%\n", v)
		return
	}
	n, err := strconv.Atoi(strings.TrimSuffix(args[0], "%"))
	if err != nil {
		sh.printf("Usage: brightness [get|<%d-%d>]\n", device.MinBrightness, device.MaxBrightness)
		return
	}
	sh.report(sh.s.Device.SetBrightness(ctx, n))
}

func (sh *Shell) cmdTimeout(ctx context.Context, args []string) {
	if len(args) == 0 || args[0] == "get" {
		v, err := sh.s.Device.GetSleepTimeout(ctx)
		if err != nil {
			sh.printf("Error: %s\n", describe(err))
			return
		}
		sh.printf("Sleep timeout: %s\n", formatTimeout(v))
		return
	}
	seconds, err := parseTimeout(args[0])
	if fault.CodeOf(err) == fault.CodeValidationFailed {
		sh.printf("Error: %s\n", err)
		return
	}
	if err != nil {
		sh.printf("Usage: timeout [get|never|<seconds>|<duration>]\n")
		return
	}
	sh.report(sh.s.Device.SetSleepTimeout(ctx, seconds))
}

func (sh *Shell) cmdColor(ctx context.Context, args []string) {
	if len(args) != 1 {
		sh.printf("Usage: color <#RRGGBB>\n")
		return
	}
	sh.report(sh.s.Device.SetColor(ctx, args[0]))
}

func (sh *Shell) cmdEffect(ctx context.Context, args []string) {
	if len(args) != 1 {
		sh.printf("Effects: %s\n", strings.Join(sh.s.Device.Model().Effects(), ", "))
		return
	}
	sh.report(sh.s.Device.SetEffect(ctx, args[0]))
}

func (sh *Shell) cmdStorage(ctx context.Context) {
	st, err := sh.s.Device.GetStorage(ctx)
	if err != nil {
		sh.printf("Error: %s\n", describe(err))
		return
	}
	sh.printf("Storage: %d of %d bytes used (%d free)\n", st.Used, st.Total, st.Free)
}

func (sh *Shell) cmdTag(ctx context.Context, args []string, line string) {
	if len(args) == 0 {
		sh.printf("Usage: tag read | tag write <text>\n")
		return
	}
	progress := func(p tagbridge.Phase, msg string) {
		if p == tagbridge.PhaseError {
			// the cause is reported once, through describe
			sh.printf("  [%s]\n", p)
			return
		}
		sh.printf("  [%s] %s\n", p, msg)
	}

	switch args[0] {
	case "read":
		res, err := sh.s.Tags.Read(ctx, progress)
		if err != nil {
			sh.printf("Tag read failed: %s\n", describe(err))
			return
		}
		content := res.Content
		if content == "" {
			content = "(empty)"
		}
		sh.printf("Tag %s: %s\n", res.UID, content)

	case "write":
		if len(args) < 2 {
			sh.printf("Usage: tag write <text>\n")
			return
		}
		text := tagText(line)
		deviceID, _ := sh.s.Device.Binding()
		rec, err := sh.s.Tags.Write(ctx, deviceID, text, progress)
		if err != nil {
			sh.printf("Tag write failed: %s\n", describe(err))
			if rec.ID != "" {
				sh.printf("Record %s left %s\n", rec.ID, rec.State)
			}
			return
		}
		sh.printf("Wrote tag %s (record %s)\n", rec.UID, rec.ID)

	default:
		sh.printf("Usage: tag read | tag write <text>\n")
	}
}

func (sh *Shell) cmdIdentity(args []string) {
	if len(args) == 0 {
		_, identity := sh.s.Device.Binding()
		sh.printf("Identity: %s\n", orNone(identity))
		return
	}
	sh.s.SetIdentity(args[0])
	sh.printf("Identity set to %s\n", args[0])
}

func (sh *Shell) report(res device.Result, err error) {
	if err != nil {
		sh.printf("Error: %s\n", describe(err))
		return
	}
	switch res.Ack {
	case device.AckStored:
		sh.printf("Saved to config store (device offline)\n")
	case device.AckDevice:
		sh.printf("OK (device confirmed)\n")
	default:
		sh.printf("OK (sent)\n")
	}
}

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

// describe returns the user-facing text for a fault, or the error itself
// for local errors such as a busy tag bridge. Tag failures without a fault
// code come from the registry and get the generic text.
func describe(err error) string {
	var opErr *tagbridge.OpError
	if fault.CodeOf(err) == fault.CodeNone && !errors.As(err, &opErr) {
		return err.Error()
	}
	return fault.UserMessage(err)
}

// tagText returns everything after "tag write", keeping inner spacing.
func tagText(line string) string {
	rest := strings.TrimSpace(line)
	for range 2 {
		i := strings.IndexFunc(rest, func(r rune) bool { return r == ' ' || r == '\t' })
		if i < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[i:])
	}
	return rest
}

func parseTimeout(s string) (int, error) {
	if s == "never" {
		return device.SleepNever, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return device.ValidateSleepDuration(d)
}

func formatTimeout(seconds int) string {
	if seconds == device.SleepNever {
		return "never"
	}
	return (time.Duration(seconds) * time.Second).String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
