package model

// Control type vocabulary exposed by the accessibility layer.
const (
	ControlButton      = "Button"
	ControlText        = "Text"
	ControlEdit        = "Edit"
	ControlCheckBox    = "CheckBox"
	ControlRadioButton = "RadioButton"
	ControlComboBox    = "ComboBox"
	ControlList        = "List"
	ControlListItem    = "ListItem"
	ControlMenu        = "Menu"
	ControlMenuItem    = "MenuItem"
	ControlTree        = "Tree"
	ControlTreeItem    = "TreeItem"
	ControlToolBar     = "ToolBar"
	ControlTab         = "Tab"
	ControlTabItem     = "TabItem"
	ControlWindow      = "Window"
	ControlDialog      = "Dialog"
	ControlPane        = "Pane"
	ControlGroup       = "Group"
	ControlDocument    = "Document"
	ControlStatusBar   = "StatusBar"
	ControlImage       = "Image"
	ControlHyperlink   = "Hyperlink"
)

// InteractiveTypes are control types that directly accept user input.
// The resolver prefers these over generic containers when several
// elements contain the same point.
var InteractiveTypes = map[string]bool{
	ControlButton:      true,
	ControlEdit:        true,
	ControlCheckBox:    true,
	ControlRadioButton: true,
	ControlComboBox:    true,
	ControlListItem:    true,
	ControlMenuItem:    true,
	ControlTreeItem:    true,
	ControlTabItem:     true,
	ControlHyperlink:   true,
}

// ContainerTypes are structural control types that usually wrap the
// element the user actually meant to hit.
var ContainerTypes = map[string]bool{
	ControlWindow:   true,
	ControlDialog:   true,
	ControlPane:     true,
	ControlGroup:    true,
	ControlDocument: true,
	ControlList:     true,
	ControlTree:     true,
	ControlToolBar:  true,
	ControlTab:      true,
	ControlMenu:     true,
}

// IsInteractive reports whether the control type directly accepts input.
func IsInteractive(controlType string) bool {
	return InteractiveTypes[controlType]
}
