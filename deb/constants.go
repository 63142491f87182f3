package deb

// ControlField represents a standard field in a Debian control file.
type ControlField string

const (
	FieldPackage       ControlField = "Package"
	FieldVersion       ControlField = "Version"
	FieldArchitecture  ControlField = "Architecture"
	FieldMaintainer    ControlField = "Maintainer"
	FieldDescription   ControlField = "Description"
	FieldSection       ControlField = "Section"
	FieldPriority      ControlField = "Priority"
	FieldEssential     ControlField = "Essential"
	FieldDepends       ControlField = "Depends"
	FieldInstalledSize ControlField = "Installed-Size"

	// Fields that only appear in package index stanzas.
	FieldName     ControlField = "Name"
	FieldAuthor   ControlField = "Author"
	FieldFilename ControlField = "Filename"
	FieldSize     ControlField = "Size"
	FieldMD5sum   ControlField = "MD5sum"
	FieldSHA1     ControlField = "SHA1"
	FieldSHA256   ControlField = "SHA256"
)

// ControlMember represents a standard file found in the control.tar archive.
type ControlMember string

const (
	FileControl   ControlMember = "control"
	FileMd5sums   ControlMember = "md5sums"
	FileConffiles ControlMember = "conffiles"
	FilePreinst   ControlMember = "preinst"
	FilePostinst  ControlMember = "postinst"
	FilePrerm     ControlMember = "prerm"
	FilePostrm    ControlMember = "postrm"
)

// Names and name prefixes of the members of the outer ar archive.
//
// Reference: https://manpages.debian.org/unstable/dpkg-dev/deb.5.en.html#FORMAT
const (
	MemberDebianBinary  = "debian-binary"
	MemberControlPrefix = "control.tar"
	MemberDataPrefix    = "data.tar"
)

// Names used in MissingPartError.
const (
	PartDebianBinary = "debian-binary"
	PartControl      = "control"
	PartData         = "data"
)

// FormatVersion is the content of the debian-binary member written by Pack.
const FormatVersion = "2.0\n"
