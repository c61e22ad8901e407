package cc1101

// Configuration registers.
const (
	IOCFG2   = 0x00
	IOCFG1   = 0x01
	IOCFG0   = 0x02
	PKTLEN   = 0x06
	PKTCTRL1 = 0x07
	PKTCTRL0 = 0x08
	FREQ2    = 0x0D
	FREQ1    = 0x0E
	FREQ0    = 0x0F
	MDMCFG2  = 0x12
	MCSM1    = 0x17
)

// Command strobes.
const (
	SRES  = 0x30
	SCAL  = 0x33
	SRX   = 0x34
	STX   = 0x35
	SIDLE = 0x36
	SFRX  = 0x3A
	SFTX  = 0x3B
	SNOP  = 0x3D
)

// Status registers, read with the burst bit set.
const (
	PARTNUM = 0x30
	VERSION = 0x31
)

// FIFO is the TX FIFO on write and the RX FIFO on read.
const FIFO = 0x3F

// Header byte flags.
const (
	flagBurst = 0x40
	flagRead  = 0x80
)

// GDO signal selections (IOCFGx low six bits).
const (
	gdoSyncWord = 0x06 // asserts on sync word, deasserts at end of packet
	gdoCRCOK    = 0x07 // asserts on a packet with good CRC, deasserts on FIFO read
	gdoHighZ    = 0x2E
)

// Register values written by Configure.
const (
	pktctrl1CRCAutoflush = 1 << 3
	pktctrl0Whitening    = 1 << 6
	pktctrl0CRC          = 1 << 2

	mdmcfg2Manchester = 1 << 3
	mdmcfg2Sync16of16 = 0b010

	// CCA always, RX off goes to TX, TX off goes to RX
	mcsm1Turnaround = 0b00001011
)
