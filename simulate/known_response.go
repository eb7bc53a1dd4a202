package simulate

import (
	"strings"

	"github.com/speakeasy-api/jaxrsflow"
)

// statusConstants maps Response.Status constant names to their codes.
var statusConstants = map[string]int{
	"OK":                              200,
	"CREATED":                         201,
	"ACCEPTED":                        202,
	"NO_CONTENT":                      204,
	"RESET_CONTENT":                   205,
	"PARTIAL_CONTENT":                 206,
	"MOVED_PERMANENTLY":               301,
	"FOUND":                           302,
	"SEE_OTHER":                       303,
	"NOT_MODIFIED":                    304,
	"USE_PROXY":                       305,
	"TEMPORARY_REDIRECT":              307,
	"PERMANENT_REDIRECT":              308,
	"BAD_REQUEST":                     400,
	"UNAUTHORIZED":                    401,
	"PAYMENT_REQUIRED":                402,
	"FORBIDDEN":                       403,
	"NOT_FOUND":                       404,
	"METHOD_NOT_ALLOWED":              405,
	"NOT_ACCEPTABLE":                  406,
	"PROXY_AUTHENTICATION_REQUIRED":   407,
	"REQUEST_TIMEOUT":                 408,
	"CONFLICT":                        409,
	"GONE":                            410,
	"LENGTH_REQUIRED":                 411,
	"PRECONDITION_FAILED":             412,
	"REQUEST_ENTITY_TOO_LARGE":        413,
	"REQUEST_URI_TOO_LONG":            414,
	"UNSUPPORTED_MEDIA_TYPE":          415,
	"REQUESTED_RANGE_NOT_SATISFIABLE": 416,
	"EXPECTATION_FAILED":              417,
	"PRECONDITION_REQUIRED":           428,
	"TOO_MANY_REQUESTS":               429,
	"REQUEST_HEADER_FIELDS_TOO_LARGE": 431,
	"UNAVAILABLE_FOR_LEGAL_REASONS":   451,
	"INTERNAL_SERVER_ERROR":           500,
	"NOT_IMPLEMENTED":                 501,
	"BAD_GATEWAY":                     502,
	"SERVICE_UNAVAILABLE":             503,
	"GATEWAY_TIMEOUT":                 504,
	"HTTP_VERSION_NOT_SUPPORTED":      505,
	"NETWORK_AUTHENTICATION_REQUIRED": 511,
}

var statusNames = func() map[int]string {
	m := make(map[int]string, len(statusConstants))
	for name, code := range statusConstants {
		m[code] = name
	}
	return m
}()

// StatusByName returns the code of a Response.Status constant.
func StatusByName(name string) (int, bool) {
	code, ok := statusConstants[name]
	return code, ok
}

// mediaTypes maps MediaType constants to their values. The *_TYPE constants
// hold MediaType instances of the same value.
var mediaTypes = map[string]string{
	"WILDCARD":                    "*/*",
	"APPLICATION_XML":             "application/xml",
	"APPLICATION_ATOM_XML":        "application/atom+xml",
	"APPLICATION_XHTML_XML":       "application/xhtml+xml",
	"APPLICATION_SVG_XML":         "application/svg+xml",
	"APPLICATION_JSON":            "application/json",
	"APPLICATION_FORM_URLENCODED": "application/x-www-form-urlencoded",
	"MULTIPART_FORM_DATA":         "multipart/form-data",
	"APPLICATION_OCTET_STREAM":    "application/octet-stream",
	"TEXT_PLAIN":                  "text/plain",
	"TEXT_XML":                    "text/xml",
	"TEXT_HTML":                   "text/html",
	"SERVER_SENT_EVENTS":          "text/event-stream",
	"APPLICATION_JSON_PATCH_JSON": "application/json-patch+json",
}

// exceptionDefaults holds the status each JAX-RS exception class implies
// when its constructor does not name one. Zero means no default.
var exceptionDefaults = map[string]int{
	"javax/ws/rs/WebApplicationException":      500,
	"javax/ws/rs/BadRequestException":          400,
	"javax/ws/rs/NotAuthorizedException":       401,
	"javax/ws/rs/ForbiddenException":           403,
	"javax/ws/rs/NotFoundException":            404,
	"javax/ws/rs/NotAllowedException":          405,
	"javax/ws/rs/NotAcceptableException":       406,
	"javax/ws/rs/NotSupportedException":        415,
	"javax/ws/rs/InternalServerErrorException": 500,
	"javax/ws/rs/ServiceUnavailableException":  503,
	"javax/ws/rs/ClientErrorException":         0,
	"javax/ws/rs/ServerErrorException":         0,
	"javax/ws/rs/RedirectionException":         0,
}

// IsStatusException reports whether class is one of the exceptions whose
// construction carries an HTTP status.
func IsStatusException(class string) bool {
	_, ok := exceptionDefaults[jaxrsflow.Canonical(class)]
	return ok
}

// statuses extracts the status codes e may stand for: int literals, Status
// constants and the statuses of responses.
func statuses(e Element) []int {
	var out []int
	for _, v := range e.values {
		switch x := v.(type) {
		case int32:
			out = append(out, int(x))
		case StatusCode:
			out = append(out, int(x))
		case *HttpResponse:
			out = append(out, x.Statuses...)
		}
	}
	return out
}

// stringValues returns the string literals among e's values.
func stringValues(e Element) []string {
	var out []string
	for _, v := range e.values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// responses returns the response values of e. When e holds none a fresh
// response is returned so that chains on unknown receivers still record
// what they set.
func responses(e Element) []*HttpResponse {
	var out []*HttpResponse
	for _, v := range e.values {
		if r, ok := v.(*HttpResponse); ok {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		out = append(out, &HttpResponse{})
	}
	return out
}

func responseElement(desc string, rs []*HttpResponse) Element {
	vals := make([]any, len(rs))
	for i, r := range rs {
		vals[i] = r
	}
	return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(desc)}, vals...)
}

// builderHeaders maps ResponseBuilder methods to the header they set.
var builderHeaders = map[string]string{
	"location":        "Location",
	"contentLocation": "Content-Location",
	"tag":             "ETag",
	"lastModified":    "Last-Modified",
	"expires":         "Expires",
	"cookie":          "Set-Cookie",
	"language":        "Content-Language",
	"encoding":        "Content-Encoding",
	"cacheControl":    "Cache-Control",
	"allow":           "Allow",
	"link":            "Link",
	"links":           "Link",
	"variants":        "Vary",
}

// responseFactories describes the static Response methods.
var responseFactories = map[string]struct {
	status int
	header string
}{
	"ok":                {200, ""},
	"created":           {201, "Location"},
	"accepted":          {202, ""},
	"noContent":         {204, ""},
	"seeOther":          {303, "Location"},
	"notModified":       {304, ""},
	"temporaryRedirect": {307, "Location"},
	"notAcceptable":     {406, "Vary"},
	"serverError":       {500, ""},
}

// invokeResponse replays calls on Response, ResponseBuilder and
// Response.Status. args holds the receiver first for instance methods. The
// boolean result is false when the call is not one it knows.
func invokeResponse(m jaxrsflow.MethodIdentifier, args []Element) (Element, bool) {
	class := jaxrsflow.Canonical(m.ContainingClass)
	switch class {
	case jaxrsflow.ClassResponse:
		if m.Static {
			return responseFactory(m, args)
		}
		if m.Name == "getStatus" {
			return statusOf(args[0], jaxrsflow.Int), true
		}
		if m.Name == "getStatusInfo" {
			return statusOf(args[0], jaxrsflow.StatusType), true
		}
		return Element{}, false
	case jaxrsflow.ClassResponseBuilder:
		if m.Static {
			return Element{}, false
		}
		return builderCall(m, args[0], args[1:])
	case jaxrsflow.ClassResponseStatus, jaxrsflow.ClassStatusType:
		switch m.Name {
		case "getStatusCode":
			if !m.Static && len(args) > 0 {
				return statusCodes(args[0]), true
			}
		case "fromStatusCode":
			if m.Static && len(args) == 1 {
				var vals []any
				for _, code := range statuses(args[0]) {
					vals = append(vals, StatusCode(code))
				}
				return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.ResponseStatus)}, vals...), true
			}
		case "valueOf":
			if m.Static && len(args) == 1 {
				var vals []any
				for _, s := range stringValues(args[0]) {
					if code, ok := statusConstants[s]; ok {
						vals = append(vals, StatusCode(code))
					}
				}
				return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.ResponseStatus)}, vals...), true
			}
		}
	}
	return Element{}, false
}

func responseFactory(m jaxrsflow.MethodIdentifier, args []Element) (Element, bool) {
	r := &HttpResponse{}
	switch m.Name {
	case "status":
		if len(args) == 0 {
			return Element{}, false
		}
		for _, code := range statuses(args[0]) {
			r.AddStatus(code)
		}
	case "fromResponse":
		if len(args) == 0 {
			return Element{}, false
		}
		var out []*HttpResponse
		for _, src := range responses(args[0]) {
			out = append(out, src.Clone())
		}
		return responseElement(jaxrsflow.ResponseBuilder, out), true
	default:
		f, ok := responseFactories[m.Name]
		if !ok {
			return Element{}, false
		}
		r.AddStatus(f.status)
		if f.header != "" {
			r.AddHeader(f.header)
		}
		switch {
		case m.Name == "ok" && len(args) > 0:
			r.AddEntity(args[0])
			if len(args) > 1 {
				addMediaTypes(r, args[1])
			}
		case m.Name == "notModified" && len(args) > 0:
			r.AddHeader("ETag")
		}
	}
	return responseElement(jaxrsflow.ResponseBuilder, []*HttpResponse{r}), true
}

// builderCall applies a ResponseBuilder instance method to every response
// the receiver may be.
func builderCall(m jaxrsflow.MethodIdentifier, receiver Element, args []Element) (Element, bool) {
	rs := responses(receiver)
	switch m.Name {
	case "build":
		return responseElement(jaxrsflow.Response, rs), true
	case "clone":
		out := make([]*HttpResponse, len(rs))
		for i, r := range rs {
			out[i] = r.Clone()
		}
		return responseElement(jaxrsflow.ResponseBuilder, out), true
	}

	for _, r := range rs {
		switch m.Name {
		case "status":
			// the builder's status is replaced, not accumulated
			r.Statuses = nil
			if len(args) > 0 {
				for _, code := range statuses(args[0]) {
					r.AddStatus(code)
				}
			}
		case "entity":
			if len(args) > 0 {
				r.AddEntity(args[0])
			}
		case "type":
			if len(args) > 0 {
				addMediaTypes(r, args[0])
			}
		case "header":
			if len(args) > 0 {
				for _, name := range stringValues(args[0]) {
					r.AddHeader(name)
				}
			}
		default:
			if h, ok := builderHeaders[m.Name]; ok {
				r.AddHeader(h)
			}
		}
	}
	if jaxrsflow.Canonical(m.ReturnType) != jaxrsflow.ResponseBuilder {
		return Element{}, false
	}
	return responseElement(jaxrsflow.ResponseBuilder, rs), true
}

func addMediaTypes(r *HttpResponse, e Element) {
	for _, s := range stringValues(e) {
		r.AddContentType(s)
	}
}

// statusOf returns the statuses of the responses in e as desc.
func statusOf(e Element, desc string) Element {
	var vals []any
	for _, v := range e.values {
		r, ok := v.(*HttpResponse)
		if !ok {
			continue
		}
		for _, code := range r.Statuses {
			if desc == jaxrsflow.Int {
				vals = append(vals, int32(code))
			} else {
				vals = append(vals, StatusCode(code))
			}
		}
	}
	return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(desc)}, vals...)
}

func statusCodes(e Element) Element {
	var vals []any
	for _, v := range e.values {
		if s, ok := v.(StatusCode); ok {
			vals = append(vals, int32(s))
		}
	}
	return NewElement([]jaxrsflow.TypeIdentifier{jaxrsflow.TypeOf(jaxrsflow.Int)}, vals...)
}

// getStatic resolves Response.Status and MediaType constants.
func getStatic(owner, name, desc string) (Element, bool) {
	switch jaxrsflow.Canonical(owner) {
	case jaxrsflow.ClassResponseStatus:
		if code, ok := statusConstants[name]; ok {
			return Of(StatusCode(code), jaxrsflow.ResponseStatus), true
		}
	case jaxrsflow.ClassMediaType:
		if v, ok := mediaTypes[strings.TrimSuffix(name, "_TYPE")]; ok {
			if strings.HasSuffix(name, "_TYPE") {
				return Of(v, jaxrsflow.MediaType), true
			}
			return Of(v, jaxrsflow.String), true
		}
	}
	return Element{}, false
}

// construct handles the constructor of a status-bearing exception. It
// attaches a response to every instance the receiver may be.
func construct(m jaxrsflow.MethodIdentifier, receiver Element, args []Element) bool {
	class := jaxrsflow.Canonical(m.ContainingClass)
	def, ok := exceptionDefaults[class]
	if !ok {
		return false
	}
	var codes []int
	hasStatusParam := false
	for i, p := range m.Parameters {
		switch jaxrsflow.Canonical(jaxrsflow.Erase(p)) {
		case jaxrsflow.Int, jaxrsflow.ResponseStatus, jaxrsflow.StatusType, jaxrsflow.Response:
			hasStatusParam = true
			if i < len(args) {
				codes = append(codes, statuses(args[i])...)
			}
		}
	}
	if len(codes) == 0 && def != 0 && (!hasStatusParam || class != "javax/ws/rs/WebApplicationException") {
		codes = []int{def}
	}
	for _, v := range receiver.values {
		inst, ok := v.(*Instance)
		if !ok {
			continue
		}
		if len(codes) == 0 {
			inst.Response = nil
			continue
		}
		r := &HttpResponse{}
		for _, c := range codes {
			r.AddStatus(c)
		}
		inst.Response = r
	}
	return true
}
