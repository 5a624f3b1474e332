package directive

// SourceKind names a source variant.
type SourceKind string

const (
	KindNone           SourceKind = "none"
	KindLiteral        SourceKind = "literal"
	KindSecret         SourceKind = "secret"
	KindAssumedRole    SourceKind = "assumed-role"
	KindObjectDownload SourceKind = "object-download"
)

// Source is where a directive's value comes from. The set of
// implementations is closed.
type Source interface {
	Kind() SourceKind
	// Field is the manifest key that selected this source.
	Field() string
	isSource()
}

// Literal uses Value verbatim.
type Literal struct {
	Value string
}

func (Literal) Kind() SourceKind { return KindLiteral }
func (Literal) Field() string    { return KeyInputData }
func (Literal) isSource()        {}

// Secret looks Name up in the secret store.
type Secret struct {
	Name string
}

func (Secret) Kind() SourceKind { return KindSecret }
func (Secret) Field() string    { return KeyInputSecret }
func (Secret) isSource()        {}

// AssumedRole exchanges the build's credentials for a role's. Exactly one
// of RoleARN and RoleARNSecret is set; the latter names a secret holding
// the ARN.
type AssumedRole struct {
	RoleARN       string
	RoleARNSecret string
}

func (AssumedRole) Kind() SourceKind { return KindAssumedRole }

func (r AssumedRole) Field() string {
	if r.RoleARNSecret != "" {
		return KeyInputRoleARNSecret
	}
	return KeyInputRoleARN
}

func (AssumedRole) isSource() {}

// ObjectDownload fetches Locator into a temporary file.
type ObjectDownload struct {
	Locator string
}

func (ObjectDownload) Kind() SourceKind { return KindObjectDownload }
func (ObjectDownload) Field() string    { return KeyInputS3 }
func (ObjectDownload) isSource()        {}
