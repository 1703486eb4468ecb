package shapesheet

import "sort"

// Section ids of the host property store.
const (
	SectionObject       SectionID = 1
	SectionCharacter    SectionID = 3
	SectionParagraph    SectionID = 4
	SectionTab          SectionID = 5
	SectionScratch      SectionID = 6
	SectionConnectionPt SectionID = 7
	SectionTextField    SectionID = 8
	SectionControls     SectionID = 9
	SectionAction       SectionID = 240
	SectionLayer        SectionID = 241
	SectionUser         SectionID = 242
	SectionProp         SectionID = 243
	SectionHyperlink    SectionID = 244
)

// Fixed rows of SectionObject.
const (
	RowXFormOut    RowIndex = 1
	RowLine        RowIndex = 2
	RowFill        RowIndex = 3
	RowXForm1D     RowIndex = 4
	RowEvent       RowIndex = 5
	RowLayerMem    RowIndex = 6
	RowStyle       RowIndex = 7
	RowMisc        RowIndex = 8
	RowPage        RowIndex = 10
	RowText        RowIndex = 11
	RowTextXForm   RowIndex = 12
	RowAlign       RowIndex = 13
	RowLock        RowIndex = 15
	RowGroup       RowIndex = 22
	RowShapeLayout RowIndex = 23
)

// Columns of RowXFormOut.
const (
	ColPinX    ColumnID = 0
	ColPinY    ColumnID = 1
	ColWidth   ColumnID = 2
	ColHeight  ColumnID = 3
	ColLocPinX ColumnID = 4
	ColLocPinY ColumnID = 5
	ColAngle   ColumnID = 6
	ColFlipX   ColumnID = 7
	ColFlipY   ColumnID = 8
)

// Columns of RowLock.
const (
	ColLockWidth ColumnID = iota
	ColLockHeight
	ColLockMoveX
	ColLockMoveY
	ColLockAspect
	ColLockDelete
	ColLockBegin
	ColLockEnd
	ColLockRotate
	ColLockCrop
	ColLockVtxEdit
	ColLockTextEdit
	ColLockFormat
	ColLockGroup
	ColLockCalcWH
	ColLockSelect
)

// Columns of RowLine and RowFill.
const (
	ColLineWeight  ColumnID = 0
	ColLineColor   ColumnID = 1
	ColLinePattern ColumnID = 2
	ColRounding    ColumnID = 3

	ColFillForegnd ColumnID = 0
	ColFillBkgnd   ColumnID = 1
	ColFillPattern ColumnID = 2
	ColShdwForegnd ColumnID = 3
	ColShdwBkgnd   ColumnID = 4
	ColShdwPattern ColumnID = 5
)

// Columns of RowText (text block margins and alignment).
const (
	ColTxtLeftMargin    ColumnID = 0
	ColTxtRightMargin   ColumnID = 1
	ColTxtTopMargin     ColumnID = 2
	ColTxtBottomMargin  ColumnID = 3
	ColTxtVerticalAlign ColumnID = 4
	ColTxtBkgnd         ColumnID = 5
)

// Columns of RowPage.
const (
	ColPageWidth  ColumnID = 0
	ColPageHeight ColumnID = 1
	ColPageScale  ColumnID = 2
	ColDrawScale  ColumnID = 3
)

// Columns of the repeating Character section.
const (
	ColCharFont  ColumnID = 0
	ColCharColor ColumnID = 1
	ColCharStyle ColumnID = 2
	ColCharCase  ColumnID = 3
	ColCharPos   ColumnID = 4
	ColCharSize  ColumnID = 7
)

// Columns of the repeating User and Prop sections.
const (
	ColUserValue  ColumnID = 0
	ColUserPrompt ColumnID = 1

	ColPropValue  ColumnID = 0
	ColPropPrompt ColumnID = 1
	ColPropLabel  ColumnID = 2
	ColPropFormat ColumnID = 3
	ColPropType   ColumnID = 5
	ColPropInvis  ColumnID = 6
)

// Named addresses of the fixed cells most callers need.
var (
	PinX    = CellAddress{SectionObject, RowXFormOut, ColPinX}
	PinY    = CellAddress{SectionObject, RowXFormOut, ColPinY}
	Width   = CellAddress{SectionObject, RowXFormOut, ColWidth}
	Height  = CellAddress{SectionObject, RowXFormOut, ColHeight}
	LocPinX = CellAddress{SectionObject, RowXFormOut, ColLocPinX}
	LocPinY = CellAddress{SectionObject, RowXFormOut, ColLocPinY}
	Angle   = CellAddress{SectionObject, RowXFormOut, ColAngle}
	FlipX   = CellAddress{SectionObject, RowXFormOut, ColFlipX}
	FlipY   = CellAddress{SectionObject, RowXFormOut, ColFlipY}

	LockWidth    = CellAddress{SectionObject, RowLock, ColLockWidth}
	LockHeight   = CellAddress{SectionObject, RowLock, ColLockHeight}
	LockMoveX    = CellAddress{SectionObject, RowLock, ColLockMoveX}
	LockMoveY    = CellAddress{SectionObject, RowLock, ColLockMoveY}
	LockAspect   = CellAddress{SectionObject, RowLock, ColLockAspect}
	LockDelete   = CellAddress{SectionObject, RowLock, ColLockDelete}
	LockBegin    = CellAddress{SectionObject, RowLock, ColLockBegin}
	LockEnd      = CellAddress{SectionObject, RowLock, ColLockEnd}
	LockRotate   = CellAddress{SectionObject, RowLock, ColLockRotate}
	LockCrop     = CellAddress{SectionObject, RowLock, ColLockCrop}
	LockVtxEdit  = CellAddress{SectionObject, RowLock, ColLockVtxEdit}
	LockTextEdit = CellAddress{SectionObject, RowLock, ColLockTextEdit}
	LockFormat   = CellAddress{SectionObject, RowLock, ColLockFormat}
	LockGroup    = CellAddress{SectionObject, RowLock, ColLockGroup}
	LockCalcWH   = CellAddress{SectionObject, RowLock, ColLockCalcWH}
	LockSelect   = CellAddress{SectionObject, RowLock, ColLockSelect}

	LineWeight  = CellAddress{SectionObject, RowLine, ColLineWeight}
	LineColor   = CellAddress{SectionObject, RowLine, ColLineColor}
	LinePattern = CellAddress{SectionObject, RowLine, ColLinePattern}
	Rounding    = CellAddress{SectionObject, RowLine, ColRounding}

	FillForegnd = CellAddress{SectionObject, RowFill, ColFillForegnd}
	FillBkgnd   = CellAddress{SectionObject, RowFill, ColFillBkgnd}
	FillPattern = CellAddress{SectionObject, RowFill, ColFillPattern}
	ShdwForegnd = CellAddress{SectionObject, RowFill, ColShdwForegnd}
	ShdwBkgnd   = CellAddress{SectionObject, RowFill, ColShdwBkgnd}
	ShdwPattern = CellAddress{SectionObject, RowFill, ColShdwPattern}

	TxtLeftMargin    = CellAddress{SectionObject, RowText, ColTxtLeftMargin}
	TxtRightMargin   = CellAddress{SectionObject, RowText, ColTxtRightMargin}
	TxtTopMargin     = CellAddress{SectionObject, RowText, ColTxtTopMargin}
	TxtBottomMargin  = CellAddress{SectionObject, RowText, ColTxtBottomMargin}
	TxtVerticalAlign = CellAddress{SectionObject, RowText, ColTxtVerticalAlign}
	TxtBkgnd         = CellAddress{SectionObject, RowText, ColTxtBkgnd}

	PageWidth  = CellAddress{SectionObject, RowPage, ColPageWidth}
	PageHeight = CellAddress{SectionObject, RowPage, ColPageHeight}
	PageScale  = CellAddress{SectionObject, RowPage, ColPageScale}
	DrawScale  = CellAddress{SectionObject, RowPage, ColDrawScale}

	// Row 0 of the repeating sections; executors substitute the real row index.
	CharFont  = CellAddress{SectionCharacter, 0, ColCharFont}
	CharColor = CellAddress{SectionCharacter, 0, ColCharColor}
	CharStyle = CellAddress{SectionCharacter, 0, ColCharStyle}
	CharCase  = CellAddress{SectionCharacter, 0, ColCharCase}
	CharPos   = CellAddress{SectionCharacter, 0, ColCharPos}
	CharSize  = CellAddress{SectionCharacter, 0, ColCharSize}
)

// cells is the versioned name → address catalog. It changes only with the host.
var cells = map[string]CellAddress{
	"PinX": PinX, "PinY": PinY, "Width": Width, "Height": Height,
	"LocPinX": LocPinX, "LocPinY": LocPinY, "Angle": Angle,
	"FlipX": FlipX, "FlipY": FlipY,

	"LockWidth": LockWidth, "LockHeight": LockHeight, "LockMoveX": LockMoveX,
	"LockMoveY": LockMoveY, "LockAspect": LockAspect, "LockDelete": LockDelete,
	"LockBegin": LockBegin, "LockEnd": LockEnd, "LockRotate": LockRotate,
	"LockCrop": LockCrop, "LockVtxEdit": LockVtxEdit, "LockTextEdit": LockTextEdit,
	"LockFormat": LockFormat, "LockGroup": LockGroup, "LockCalcWH": LockCalcWH,
	"LockSelect": LockSelect,

	"LineWeight": LineWeight, "LineColor": LineColor, "LinePattern": LinePattern,
	"Rounding": Rounding,

	"FillForegnd": FillForegnd, "FillBkgnd": FillBkgnd, "FillPattern": FillPattern,
	"ShdwForegnd": ShdwForegnd, "ShdwBkgnd": ShdwBkgnd, "ShdwPattern": ShdwPattern,

	"TxtLeftMargin": TxtLeftMargin, "TxtRightMargin": TxtRightMargin,
	"TxtTopMargin": TxtTopMargin, "TxtBottomMargin": TxtBottomMargin,
	"TxtVerticalAlign": TxtVerticalAlign, "TxtBkgnd": TxtBkgnd,

	"PageWidth": PageWidth, "PageHeight": PageHeight,
	"PageScale": PageScale, "DrawingScale": DrawScale,

	"CharFont": CharFont, "CharColor": CharColor, "CharStyle": CharStyle,
	"CharCase": CharCase, "CharPos": CharPos, "CharSize": CharSize,
}

var addressNames = func() map[CellAddress]string {
	m := make(map[CellAddress]string, len(cells))
	for name, addr := range cells {
		m[addr] = name
	}
	return m
}()

// LookupCell returns the address registered under name.
func LookupCell(name string) (CellAddress, bool) {
	addr, ok := cells[name]
	return addr, ok
}

// CellNames returns all catalogued cell names in sorted order.
func CellNames() []string {
	names := make([]string, 0, len(cells))
	for name := range cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRepeatingSection reports whether rows of the section vary per object.
func IsRepeatingSection(s SectionID) bool {
	return s != SectionObject
}
