package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/pastabot/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// maxScanID is the highest servo ID probed on each port.
const maxScanID = 10

type SetupCommand struct {
	Config   string `long:"config" env:"PASTABOT_CONFIG" default:"pastabot.json" description:"Configuration file to write"`
	BaudRate int    `long:"baud" default:"1000000" description:"Servo bus baud rate"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("pastabot setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━"))
	fmt.Println()

	cfg := robot.DefaultConfig()
	if robot.ConfigExists(c.Config) {
		loaded, err := robot.LoadConfigFrom(c.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", c.Config, err)
			os.Exit(1)
		}
		cfg = loaded
		fmt.Println(dimStyle.Render("Updating " + c.Config))
	}
	cfg.Bus.BaudRate = c.BaudRate

	// Step 1: find the bus
	bus := scanForBus(c.BaudRate)
	defer bus.bus.Close()
	cfg.Bus.Port = bus.port

	// Step 2: assign roles
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Assigning Roles ━━━"))
	fmt.Println()
	roles := assignRoles(bus)

	// Step 3: record home
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Recording Home ━━━"))
	fmt.Println()
	waitForUser("Put the robot in its rest pose, then continue.")
	cfg.Calibration = recordHome(bus, roles)

	if err := cfg.SaveTo(c.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(renderCalibration(cfg.Calibration))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", c.Config)
	fmt.Println()
	fmt.Println("Start the server with: " + headerStyle.Render("pastabot serve"))

	return nil
}

type busInfo struct {
	port   string
	servos []feetech.FoundServo
	bus    *feetech.Bus
}

func scanForBus(baud int) busInfo {
	fmt.Println("Scanning serial ports for servos...")
	fmt.Println()

	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
		os.Exit(1)
	}

	var found []busInfo
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: baud,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		servos, err := bus.Scan(ctx, 1, maxScanID)
		cancel()

		if err != nil || len(servos) < len(robot.AllRoles()) {
			bus.Close()
			continue
		}

		fmt.Printf("  Found %d servo(s) on %s\n", len(servos), port)
		found = append(found, busInfo{port: port, servos: servos, bus: bus})
	}

	if len(found) == 0 {
		fmt.Println("No servo bus with two servos found.")
		fmt.Println("Make sure the servos are connected and powered on.")
		os.Exit(1)
	}
	if len(found) == 1 {
		return found[0]
	}

	// Several candidates: let the user pick, close the rest
	var choice string
	options := make([]huh.Option[string], 0, len(found))
	for _, b := range found {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%d servos)", b.port, len(b.servos)), b.port))
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port drives the robot?").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	var chosen busInfo
	for _, b := range found {
		if b.port == choice {
			chosen = b
		} else {
			b.bus.Close()
		}
	}
	return chosen
}

// assignRoles wiggles each servo in turn and asks which side it is on.
func assignRoles(bus busInfo) map[robot.Role]feetech.FoundServo {
	roles := make(map[robot.Role]feetech.FoundServo)

	for _, s := range bus.servos {
		var open []robot.Role
		for _, role := range robot.AllRoles() {
			if _, ok := roles[role]; !ok {
				open = append(open, role)
			}
		}
		if len(open) == 0 {
			break
		}

		role := identifyServoWithWiggle(bus.bus, s, open)
		if role != "" {
			roles[role] = s
		}
	}

	for _, role := range robot.AllRoles() {
		if _, ok := roles[role]; !ok {
			fmt.Printf("No servo assigned to the %s role.\n", role)
			fmt.Println("Both actuators are required.")
			os.Exit(1)
		}
	}
	return roles
}

func identifyServoWithWiggle(bus *feetech.Bus, found feetech.FoundServo, open []robot.Role) robot.Role {
	ctx := context.Background()
	servo := feetech.NewServo(bus, found.ID, found.Model)

	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading servo %d: %v\n", found.ID, err)
		return ""
	}

	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo %d: %v\n", found.ID, err)
		return ""
	}

	fmt.Printf("\n  Wiggling servo %d...\n", found.ID)

	// Wiggle: single gentle, slow movement
	wiggleAmount := 60
	moveTimeMs := 400
	servo.SetPositionWithTime(ctx, originalPos+wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos-wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)

	servo.Disable(ctx)

	options := make([]huh.Option[string], 0, len(open)+1)
	for _, role := range open {
		options = append(options, huh.NewOption(strings.ToUpper(string(role[:1]))+string(role[1:]), string(role)))
	}
	options = append(options, huh.NewOption("Skip this servo", "skip"))

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Which side is servo %d on?", found.ID)).
				Description("The servo that just wiggled").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	if choice == "skip" {
		return ""
	}
	return robot.Role(choice)
}

// recordHome stores each servo's current position as its home.
func recordHome(bus busInfo, roles map[robot.Role]feetech.FoundServo) robot.Calibration {
	ctx := context.Background()
	cal := make(robot.Calibration, len(roles))

	for _, role := range robot.AllRoles() {
		found := roles[role]
		servo := feetech.NewServo(bus.bus, found.ID, found.Model)
		pos, err := servo.Position(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s servo: %v\n", role, err)
			os.Exit(1)
		}
		cal[role] = robot.ActuatorCalibration{
			ID:           found.ID,
			HomingOffset: pos,
		}
	}
	return cal
}

func waitForUser(prompt string) {
	fmt.Println(prompt)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("").
				Affirmative("Continue").
				Negative("").
				Value(new(bool)),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
}

func renderCalibration(cal robot.Calibration) string {
	rows := make([][]string, 0, len(cal))
	for _, role := range robot.AllRoles() {
		ac := cal[role]
		rows = append(rows, []string{
			string(role),
			strconv.Itoa(ac.ID),
			strconv.Itoa(ac.HomingOffset),
			strconv.Itoa(ac.DriveMode),
		})
	}

	headerCell := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Role", "Servo", "Home", "Drive mode").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cell
		}).
		Render()
}
