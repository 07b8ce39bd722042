package sx127x

type Mode byte
type Register byte

const (
	RegFifo              Register = 0x00
	RegOpMode            Register = 0x01
	RegFrfMsb            Register = 0x06
	RegFrfMid            Register = 0x07
	RegFrfLsb            Register = 0x08
	RegPaConfig          Register = 0x09
	RegLna               Register = 0x0c
	RegFifoAddrPtr       Register = 0x0d
	RegFifoTxBaseAddr    Register = 0x0e
	RegFifoRxBaseAddr    Register = 0x0f
	RegFifoRxCurrentAddr Register = 0x10
	RegIrqFlags          Register = 0x12
	RegRxNbBytes         Register = 0x13
	RegModemStat         Register = 0x18
	RegPktSnrValue       Register = 0x19
	RegPktRssiValue      Register = 0x1a
	RegModemConfig1      Register = 0x1d
	RegModemConfig2      Register = 0x1e
	RegSymbTimeoutLsb    Register = 0x1f
	RegPayloadLength     Register = 0x22
	RegModemConfig3      Register = 0x26
	RegSyncWord          Register = 0x39
	RegDioMapping1       Register = 0x40
	RegVersion           Register = 0x42
)

const (
	ModeLongRange    Mode = 0x80
	ModeSleep        Mode = 0x00
	ModeStandby      Mode = 0x01
	ModeTx           Mode = 0x03
	ModeRxContinuous Mode = 0x05
	ModeRxSingle     Mode = 0x06

	modeMask Mode = 0x07
)

const (
	IrqRxTimeoutMask       byte = 0x80
	IrqRxDoneMask          byte = 0x40
	IrqPayloadCrcErrorMask byte = 0x20
	IrqValidHeaderMask     byte = 0x10
	IrqTxDoneMask          byte = 0x08

	irqRxMask = IrqRxTimeoutMask | IrqRxDoneMask | IrqPayloadCrcErrorMask | IrqValidHeaderMask
)

const (
	PaBoost byte = 0x80

	// DIO0 mapping: RxDone or TxDone
	dioMapRxDone byte = 0x00
	dioMapTxDone byte = 0x40

	modemStatSignalDetected byte = 0x01
	modemStatHeaderValid    byte = 0x08

	crcOnMask     byte = 0x04
	symbTimeoutHi byte = 0x03

	ChipVersion byte = 0x12
)

const (
	RfMidBand uint64 = 525e6
	fxoscHz   uint64 = 32000000
)

const (
	MaxPktLength   = 255
	RssiOffsetHf   = 157
	RssiOffsetLf   = 164
	maxSymbTimeout = 0x3ff
	minSymbTimeout = 4
)
