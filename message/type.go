package message

// Type enumerates the closed set of OCPP 1.6 message types the core
// classifies. The core never interprets payload bytes; it only needs
// to know which bucket a message falls into for retry/drop/eviction
// policy and for synthesizing its own Heartbeat CALLs.
type Type byte

const (
	Unknown Type = iota

	// Core profile
	Authorize
	BootNotification
	ChangeAvailability
	ChangeConfiguration
	ClearCache
	DataTransfer
	GetConfiguration
	Heartbeat
	MeterValues
	RemoteStartTransaction
	RemoteStopTransaction
	Reset
	StartTransaction
	StatusNotification
	StopTransaction
	UnlockConnector

	// Firmware management profile
	GetDiagnostics
	DiagnosticsStatusNotification
	FirmwareStatusNotification
	UpdateFirmware

	// Local auth list management profile
	GetLocalListVersion
	SendLocalList

	// Reservation profile
	ReserveNow
	CancelReservation

	// Smart charging profile
	ClearChargingProfile
	GetCompositeSchedule
	SetChargingProfile

	// Remote trigger profile
	TriggerMessage

	// Security extensions
	SignCertificate
	CertificateSigned
	SecurityEventNotification
	LogStatusNotification
	GetLog

	typeCount // sentinel; keep last
)

var typeNames = [typeCount]string{
	Unknown:                       "Unknown",
	Authorize:                     "Authorize",
	BootNotification:              "BootNotification",
	ChangeAvailability:            "ChangeAvailability",
	ChangeConfiguration:           "ChangeConfiguration",
	ClearCache:                    "ClearCache",
	DataTransfer:                  "DataTransfer",
	GetConfiguration:              "GetConfiguration",
	Heartbeat:                     "Heartbeat",
	MeterValues:                   "MeterValues",
	RemoteStartTransaction:        "RemoteStartTransaction",
	RemoteStopTransaction:         "RemoteStopTransaction",
	Reset:                         "Reset",
	StartTransaction:              "StartTransaction",
	StatusNotification:            "StatusNotification",
	StopTransaction:               "StopTransaction",
	UnlockConnector:               "UnlockConnector",
	GetDiagnostics:                "GetDiagnostics",
	DiagnosticsStatusNotification: "DiagnosticsStatusNotification",
	FirmwareStatusNotification:    "FirmwareStatusNotification",
	UpdateFirmware:                "UpdateFirmware",
	GetLocalListVersion:           "GetLocalListVersion",
	SendLocalList:                 "SendLocalList",
	ReserveNow:                    "ReserveNow",
	CancelReservation:             "CancelReservation",
	ClearChargingProfile:          "ClearChargingProfile",
	GetCompositeSchedule:          "GetCompositeSchedule",
	SetChargingProfile:            "SetChargingProfile",
	TriggerMessage:                "TriggerMessage",
	SignCertificate:               "SignCertificate",
	CertificateSigned:             "CertificateSigned",
	SecurityEventNotification:     "SecurityEventNotification",
	LogStatusNotification:         "LogStatusNotification",
	GetLog:                        "GetLog",
}

var typeByName map[string]Type

func init() {
	typeByName = make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		typeByName[name] = Type(t)
	}
}

// String returns the wire name of t, or "Unknown" for an out-of-range value.
func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return "Unknown"
}

// ParseType looks up a Type by its wire name. The bool is false for an
// unrecognized name, distinguishing "really Unknown" from "not found".
func ParseType(name string) (Type, bool) {
	t, ok := typeByName[name]
	return t, ok
}
