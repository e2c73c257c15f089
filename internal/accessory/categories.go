package accessory

import (
	"fmt"

	hcaccessory "github.com/brutella/hc/accessory"
	"github.com/brutella/hc/service"
)

// categoryNames maps HomeKit accessory categories to their symbolic names.
var categoryNames = map[hcaccessory.AccessoryType]string{
	hcaccessory.TypeUnknown:          "Unknown",
	hcaccessory.TypeOther:            "Other",
	hcaccessory.TypeBridge:           "Bridge",
	hcaccessory.TypeFan:              "Fan",
	hcaccessory.TypeGarageDoorOpener: "GarageDoorOpener",
	hcaccessory.TypeLightbulb:        "Lightbulb",
	hcaccessory.TypeDoorLock:         "DoorLock",
	hcaccessory.TypeOutlet:           "Outlet",
	hcaccessory.TypeSwitch:           "Switch",
	hcaccessory.TypeThermostat:       "Thermostat",
	hcaccessory.TypeSensor:           "Sensor",
	hcaccessory.TypeTelevision:       "Television",
}

// serviceNames maps HomeKit service type UUIDs to their symbolic names.
var serviceNames = map[string]string{
	service.TypeAccessoryInformation: "AccessoryInformation",
	service.TypeLightbulb:            "Lightbulb",
	service.TypeOutlet:               "Outlet",
	service.TypeSwitch:               "Switch",
}

// CategoryName returns the symbolic name of a category, or "Category(n)".
func CategoryName(c hcaccessory.AccessoryType) string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ServiceName returns the symbolic name of a service type, or the raw type.
func ServiceName(serviceType string) string {
	if name, ok := serviceNames[serviceType]; ok {
		return name
	}
	return serviceType
}
