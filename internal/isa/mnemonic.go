package isa

// Mnemonic identifies the decoded operation an instruction performs. The
// execute stage switches on this value rather than re-inspecting raw
// opcode/funct3/funct7 fields.
type Mnemonic uint16

const (
	OpIllegal Mnemonic = iota

	OpLUI
	OpAUIPC
	OpJAL
	OpJALR
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	OpLB
	OpLH
	OpLW
	OpLD
	OpLBU
	OpLHU
	OpLWU
	OpSB
	OpSH
	OpSW
	OpSD

	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW
	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW

	OpFENCE
	OpFENCEI
	OpECALL
	OpEBREAK
	OpMRET
	OpSRET
	OpWFI
	OpSFENCEVMA

	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
	OpMULW
	OpDIVW
	OpDIVUW
	OpREMW
	OpREMUW

	OpLRW
	OpSCW
	OpAMOSWAPW
	OpAMOADDW
	OpAMOXORW
	OpAMOANDW
	OpAMOORW
	OpAMOMINW
	OpAMOMAXW
	OpAMOMINUW
	OpAMOMAXUW
	OpLRD
	OpSCD
	OpAMOSWAPD
	OpAMOADDD
	OpAMOXORD
	OpAMOANDD
	OpAMOORD
	OpAMOMIND
	OpAMOMAXD
	OpAMOMINUD
	OpAMOMAXUD

	OpFLW
	OpFLD
	OpFSW
	OpFSD
	OpFMADD
	OpFMSUB
	OpFNMSUB
	OpFNMADD
	OpFADD
	OpFSUB
	OpFMUL
	OpFDIV
	OpFSQRT
	OpFSGNJ
	OpFSGNJN
	OpFSGNJX
	OpFMIN
	OpFMAX
	OpFCVTWfromF
	OpFCVTWUfromF
	OpFCVTLfromF
	OpFCVTLUfromF
	OpFMVXfromF
	OpFEQ
	OpFLT
	OpFLE
	OpFCLASS
	OpFCVTFfromW
	OpFCVTFfromWU
	OpFCVTFfromL
	OpFCVTFfromLU
	OpFMVFfromX
	OpFCVTSfromD
	OpFCVTDfromS

	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
)

// FPWidth distinguishes single vs. double precision for the shared F/D
// mnemonics above (OpFADD etc. are used for both, disambiguated by Width).
type FPWidth uint8

const (
	FPWidthSingle FPWidth = iota
	FPWidthDouble
)
