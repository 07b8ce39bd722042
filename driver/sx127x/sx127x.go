// Package sx127x drives a Semtech SX1276/77/78/79 in LoRa mode as a radio
// link transceiver. It talks to the chip through the tinygo drivers SPI
// interface, so the same code runs on a microcontroller and on Linux.
package sx127x

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"

	"radiolink/core"
)

var (
	ErrVersion   = errors.New("sx127x: chip version not matched")
	ErrTxTimeout = errors.New("sx127x: transmit did not complete")
)

// Pin is an output pin such as the chip reset line. machine.Pin satisfies it.
type Pin interface {
	High()
	Low()
}

// Config selects the RF parameters
type Config struct {
	// BaseFrequency is the frequency of channel 0 in Hz
	BaseFrequency uint64
	// ChannelSpacing separates consecutive channels in Hz
	ChannelSpacing uint64
	SyncWord       byte

	// TicksPerSymbol converts a receive timeout in link ticks into LoRa
	// symbols
	TicksPerSymbol uint32

	// TxPollLimit bounds how many 1 ms polls Send waits for TxDone. A full
	// 64 byte frame takes about 120 ms on air at the power-on SF7, 125 kHz
	// modem settings.
	TxPollLimit int
}

// DefaultConfig returns settings for the 868 MHz band with 200 kHz spacing
func DefaultConfig() Config {
	return Config{
		BaseFrequency:  868100000,
		ChannelSpacing: 200000,
		SyncWord:       0x12,
		TicksPerSymbol: 64,
		TxPollLimit:    150,
	}
}

// Device is one SX127x chip
type Device struct {
	bus   drivers.SPI
	reset Pin
	cfg   Config

	mu  sync.Mutex // one register transaction sequence at a time
	out [2 + MaxPktLength]byte
	in  [2 + MaxPktLength]byte

	frequency   uint64
	linkQuality atomic.Uint32

	sleep func(time.Duration)
}

var _ core.Transceiver = (*Device)(nil)

// New creates a Device. reset may be nil when the line is not wired.
func New(bus drivers.SPI, reset Pin, cfg Config) *Device {
	if cfg.TicksPerSymbol == 0 {
		cfg.TicksPerSymbol = DefaultConfig().TicksPerSymbol
	}
	if cfg.TxPollLimit <= 0 {
		cfg.TxPollLimit = DefaultConfig().TxPollLimit
	}
	return &Device{
		bus:       bus,
		reset:     reset,
		cfg:       cfg,
		frequency: cfg.BaseFrequency,
		sleep:     time.Sleep,
	}
}

// Reset pulses the reset line
func (d *Device) Reset() error {
	if d.reset == nil {
		return nil
	}
	d.reset.Low()
	d.sleep(10 * time.Millisecond)
	d.reset.High()
	d.sleep(10 * time.Millisecond)
	return nil
}

// Init checks the chip version and configures LoRa mode with CRC, leaving
// the chip in standby
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.readRegister(RegVersion)
	if err != nil {
		return err
	}
	if v != ChipVersion {
		return ErrVersion
	}
	steps := []struct {
		reg Register
		val byte
	}{
		{RegOpMode, byte(ModeLongRange | ModeSleep)},
		{RegFifoTxBaseAddr, 0},
		{RegFifoRxBaseAddr, 0},
		{RegModemConfig3, 0x04}, // AGC auto
		{RegSyncWord, d.cfg.SyncWord},
		{RegDioMapping1, dioMapRxDone},
	}
	for _, s := range steps {
		if err := d.writeRegister(s.reg, s.val); err != nil {
			return err
		}
	}
	if err := d.setFrequency(d.frequency); err != nil {
		return err
	}
	if err := d.updateRegister(RegLna, 0xff, 0x03); err != nil { // LNA boost
		return err
	}
	if err := d.updateRegister(RegModemConfig2, ^crcOnMask, crcOnMask); err != nil {
		return err
	}
	// explicit header mode
	if err := d.updateRegister(RegModemConfig1, 0xfe, 0x00); err != nil {
		return err
	}
	return d.setMode(ModeStandby)
}

// SetChannel tunes to BaseFrequency + ch*ChannelSpacing
func (d *Device) SetChannel(ch uint8) error {
	if ch > core.MaxChannel {
		return core.ErrRange
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frequency = d.cfg.BaseFrequency + uint64(ch)*d.cfg.ChannelSpacing
	return d.setFrequency(d.frequency)
}

// SetPower sets the PA_BOOST output power level, 2 dBm + level
func (d *Device) SetPower(level uint8) error {
	if level > core.MaxPower {
		return core.ErrRange
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(RegPaConfig, PaBoost|0x70|level)
}

// EnableReceive starts continuous receive for core.ReceiveForever, or a
// single receive window of timeout ticks otherwise
func (d *Device) EnableReceive(timeout uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeRegister(RegIrqFlags, irqRxMask); err != nil {
		return err
	}
	if err := d.writeRegister(RegDioMapping1, dioMapRxDone); err != nil {
		return err
	}
	if timeout == core.ReceiveForever {
		return d.setMode(ModeRxContinuous)
	}
	symbols := timeout / d.cfg.TicksPerSymbol
	if symbols < minSymbTimeout {
		symbols = minSymbTimeout
	}
	if symbols > maxSymbTimeout {
		symbols = maxSymbTimeout
	}
	if err := d.updateRegister(RegModemConfig2, ^symbTimeoutHi, byte(symbols>>8)&symbTimeoutHi); err != nil {
		return err
	}
	if err := d.writeRegister(RegSymbTimeoutLsb, byte(symbols)); err != nil {
		return err
	}
	return d.setMode(ModeRxSingle)
}

// DisableReceive puts the chip in standby unless a frame is arriving
func (d *Device) DisableReceive() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stat, err := d.readRegister(RegModemStat)
	if err != nil {
		return err
	}
	if stat&modemStatSignalDetected != 0 && stat&modemStatHeaderValid != 0 {
		return core.ErrHardwareBusy
	}
	return d.setMode(ModeStandby)
}

// Send transmits payload and waits for TxDone. It blocks the caller for the
// frame's airtime and never longer than TxPollLimit milliseconds; on expiry
// the chip is put back in standby and ErrTxTimeout is returned.
func (d *Device) Send(payload []byte) error {
	if len(payload) > MaxPktLength {
		return core.ErrOverflow
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setMode(ModeStandby); err != nil {
		return err
	}
	if err := d.writeRegister(RegIrqFlags, IrqTxDoneMask); err != nil {
		return err
	}
	if err := d.writeRegister(RegFifoAddrPtr, 0); err != nil {
		return err
	}
	if err := d.writeRegister(RegPayloadLength, byte(len(payload))); err != nil {
		return err
	}
	if err := d.writeRegister(RegFifo, payload...); err != nil {
		return err
	}
	if err := d.writeRegister(RegDioMapping1, dioMapTxDone); err != nil {
		return err
	}
	if err := d.setMode(ModeTx); err != nil {
		return err
	}

	done := false
	for i := 0; i < d.cfg.TxPollLimit; i++ {
		irq, err := d.readRegister(RegIrqFlags)
		if err != nil {
			return err
		}
		if irq&IrqTxDoneMask != 0 {
			done = true
			break
		}
		d.sleep(time.Millisecond)
	}
	if err := d.writeRegister(RegIrqFlags, IrqTxDoneMask); err != nil {
		return err
	}
	if err := d.writeRegister(RegDioMapping1, dioMapRxDone); err != nil {
		return err
	}
	if !done {
		_ = d.setMode(ModeStandby)
		return ErrTxTimeout
	}
	return nil
}

// LinkQuality returns the raw quality of the last received frame, twice the
// RSSI magnitude in dBm
func (d *Device) LinkQuality() uint8 {
	return uint8(d.linkQuality.Load())
}

// CheckRx reads the IRQ flags and completes pkt for a receive completion.
// A chip that has dropped out of LoRa mode has been reset.
func (d *Device) CheckRx(pkt *core.RxPacket) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	op, err := d.readRegister(RegOpMode)
	if err != nil {
		return err
	}
	if Mode(op)&ModeLongRange == 0 {
		pkt.Status = core.RxReset
		pkt.Len = 0
		return nil
	}

	irq, err := d.readRegister(RegIrqFlags)
	if err != nil {
		return err
	}
	if irq&(IrqRxTimeoutMask|IrqRxDoneMask) == 0 {
		return core.ErrNoCompletion
	}
	if err := d.writeRegister(RegIrqFlags, irq&irqRxMask); err != nil {
		return err
	}

	pkt.Len = 0
	switch {
	case irq&IrqRxTimeoutMask != 0:
		pkt.Status = core.RxTimeout
		return nil
	case irq&IrqPayloadCrcErrorMask != 0:
		pkt.Status = core.RxUnknown
		return nil
	}

	n, err := d.readRegister(RegRxNbBytes)
	if err != nil {
		return err
	}
	buf := pkt.Buffer()
	if int(n) > len(buf) {
		pkt.Status = core.RxOverflow
		return nil
	}
	addr, err := d.readRegister(RegFifoRxCurrentAddr)
	if err != nil {
		return err
	}
	if err := d.writeRegister(RegFifoAddrPtr, addr); err != nil {
		return err
	}
	if err := d.readRegisterBytes(RegFifo, buf[:n]); err != nil {
		return err
	}
	pkt.Len = int(n)
	pkt.Status = core.RxSuccess

	if raw, err := d.readRegister(RegPktRssiValue); err == nil {
		d.linkQuality.Store(uint32(rawLinkQuality(d.rssi(raw))))
	}
	return nil
}

// rssi converts the packet RSSI register to dBm
func (d *Device) rssi(raw byte) int {
	if d.frequency < RfMidBand {
		return int(raw) - RssiOffsetLf
	}
	return int(raw) - RssiOffsetHf
}

// rawLinkQuality encodes an RSSI in dBm so that -(raw/2) recovers it
func rawLinkQuality(rssi int) uint8 {
	q := -rssi * 2
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return uint8(q)
}

func (d *Device) setMode(m Mode) error {
	return d.writeRegister(RegOpMode, byte(ModeLongRange|m))
}

func (d *Device) setFrequency(frequency uint64) error {
	frf := (frequency << 19) / fxoscHz
	if err := d.writeRegister(RegFrfMsb, byte(frf>>16)); err != nil {
		return err
	}
	if err := d.writeRegister(RegFrfMid, byte(frf>>8)); err != nil {
		return err
	}
	return d.writeRegister(RegFrfLsb, byte(frf))
}

func (d *Device) updateRegister(reg Register, keep, set byte) error {
	v, err := d.readRegister(reg)
	if err != nil {
		return err
	}
	return d.writeRegister(reg, v&keep|set)
}

func (d *Device) readRegister(reg Register) (byte, error) {
	d.out[0] = byte(reg) & 0x7f
	d.out[1] = 0
	if err := d.bus.Tx(d.out[:2], d.in[:2]); err != nil {
		return 0, err
	}
	return d.in[1], nil
}

func (d *Device) readRegisterBytes(reg Register, dst []byte) error {
	n := len(dst) + 1
	d.out[0] = byte(reg) & 0x7f
	for i := 1; i < n; i++ {
		d.out[i] = 0
	}
	if err := d.bus.Tx(d.out[:n], d.in[:n]); err != nil {
		return err
	}
	copy(dst, d.in[1:n])
	return nil
}

func (d *Device) writeRegister(reg Register, data ...byte) error {
	d.out[0] = byte(reg) | 0x80
	n := 1 + copy(d.out[1:], data)
	return d.bus.Tx(d.out[:n], d.in[:n])
}
