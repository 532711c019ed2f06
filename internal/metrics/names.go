package metrics

import "fmt"

const (
	NumADCs = 12
	NumDACs = 12
)

// Metric names published by a VCM node.
const (
	ModuleStatus          = "Module Status"
	BdSeq                 = "bdSeq"
	CommsVersion          = "Properties/Communications Version"
	FirmwareVersion       = "Properties/Firmware Version"
	TestBenchStatus       = "Properties/Test Bench Status"
	NodeControlReboot     = "Node Control/Reboot"
	NodeControlRebirth    = "Node Control/Rebirth"
	NodeControlNextServer = "Node Control/Next Server"
)

// ADC returns the metric name of input channel i.
func ADC(i int) string {
	return fmt.Sprintf("Inputs/ADC%d", i)
}

// DAC returns the metric name of output channel i.
func DAC(i int) string {
	return fmt.Sprintf("Outputs/DAC%d", i)
}

// KnownNames returns every metric the client tracks, in display order.
func KnownNames() []string {
	names := []string{
		ModuleStatus,
		BdSeq,
		CommsVersion,
		FirmwareVersion,
		TestBenchStatus,
		NodeControlReboot,
		NodeControlRebirth,
		NodeControlNextServer,
	}
	for i := range NumADCs {
		names = append(names, ADC(i))
	}
	for i := range NumDACs {
		names = append(names, DAC(i))
	}
	return names
}
