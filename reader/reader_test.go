package reader

import (
	"bytes"
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/svcdoc/openapi"
	"github.com/vitalvas/svcdoc/service"
)

type widget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func idParam() service.Param {
	return service.Param{Name: "id", Type: service.Named("string"), In: service.InPath}
}

// widgetService builds a fresh class graph with one sub-resource.
func widgetService(reverse bool) *service.Class {
	parts := &service.Class{
		Name: "PartResource",
		Tags: []openapi.Tag{{Name: "parts"}},
		Methods: []*service.Method{
			{Name: "list", Verb: "GET", Returns: service.Named("list", service.Named("string"))},
			{Name: "get", Verb: "GET", Path: "/{part}", Params: []service.Param{
				{Name: "part", Type: service.Named("int"), In: service.InPath},
			}},
		},
	}

	widgets := &service.Class{
		Name: "WidgetResource",
		Path: "/widgets",
		Tags: []openapi.Tag{{Name: "widgets", Description: "Widget operations"}},
		Definition: &service.Definition{
			Info: openapi.Info{Title: "Widgets", Version: "1.0.0"},
		},
		Methods: []*service.Method{
			{Name: "list", Verb: "GET", Returns: service.Named("list", service.GoType(widget{}))},
			{Name: "get", Verb: "GET", Path: "/{id}", Params: []service.Param{idParam()}, Returns: service.GoType(widget{})},
			{Name: "create", Verb: "POST", Params: []service.Param{
				{Name: "body", Type: service.GoType(widget{}), Body: &service.BodyMeta{Required: true}},
			}, Returns: service.GoType(widget{})},
			{Name: "delete", Verb: "DELETE", Path: "/{id}", Params: []service.Param{idParam()}},
			{Name: "parts", Path: "/{id}/parts", Params: []service.Param{idParam()}, Returns: service.ClassType(parts)},
		},
	}
	if reverse {
		slices.Reverse(widgets.Methods)
		slices.Reverse(parts.Methods)
	}
	return widgets
}

func operationIDs(doc *openapi.Document) map[string]string {
	out := make(map[string]string)
	for path, item := range doc.Paths {
		item.Operations(func(method string, op *openapi.Operation) {
			out[path+" "+method] = op.OperationID
		})
	}
	return out
}

func TestRead(t *testing.T) {
	doc, err := New(nil, Config{}).Read(widgetService(false))
	require.NoError(t, err)

	assert.Equal(t, "Widgets", doc.Info.Title)
	assert.Equal(t, map[string]string{
		"/widgets get":                   "list",
		"/widgets post":                  "create",
		"/widgets/{id} get":              "get",
		"/widgets/{id} delete":           "delete",
		"/widgets/{id}/parts get":        "list_1",
		"/widgets/{id}/parts/{part} get": "get_1",
	}, operationIDs(doc))

	t.Run("response schemas", func(t *testing.T) {
		get := doc.Paths["/widgets/{id}"].Get
		require.Contains(t, get.Responses, "default")
		resp := get.Responses["default"]
		assert.Equal(t, "default response", resp.Description)
		assert.Equal(t, "#/components/schemas/widget", resp.Content["*/*"].Schema.Ref)

		list := doc.Paths["/widgets"].Get.Responses["default"].Content["*/*"].Schema
		assert.Equal(t, openapi.TypeString("array"), list.Type)
		assert.Equal(t, "#/components/schemas/widget", list.Items.Ref)
	})

	t.Run("request body", func(t *testing.T) {
		body := doc.Paths["/widgets"].Post.RequestBody
		require.NotNil(t, body)
		assert.True(t, body.Required)
		assert.Equal(t, "#/components/schemas/widget", body.Content["*/*"].Schema.Ref)
	})

	t.Run("operations without return type get a bare default", func(t *testing.T) {
		del := doc.Paths["/widgets/{id}"].Delete
		assert.Equal(t, map[string]*openapi.Response{"default": {Description: "default response"}}, del.Responses)
	})

	t.Run("sub-resource inherits parameters and tags", func(t *testing.T) {
		part := doc.Paths["/widgets/{id}/parts/{part}"].Get
		names := make([]string, len(part.Parameters))
		for i, p := range part.Parameters {
			names[i] = p.Name
		}
		assert.Equal(t, []string{"part", "id"}, names)
		assert.Equal(t, []string{"parts", "widgets"}, part.Tags)
		assert.Equal(t, "integer", part.Parameters[0].Schema.Type.Values()[0])
	})

	t.Run("components", func(t *testing.T) {
		require.NotNil(t, doc.Components)
		assert.Contains(t, doc.Components.Schemas, "widget")
	})

	t.Run("tags", func(t *testing.T) {
		names := make([]string, len(doc.Tags))
		for i, tag := range doc.Tags {
			names[i] = tag.Name
		}
		assert.Equal(t, []string{"parts", "widgets"}, names)
	})
}

func TestReadDeterministic(t *testing.T) {
	encode := func(reverse bool) string {
		doc, err := New(nil, Config{}).Read(widgetService(reverse))
		require.NoError(t, err)
		data, err := openapi.MarshalJSON(doc)
		require.NoError(t, err)
		return string(data)
	}

	first := encode(false)
	assert.Empty(t, cmp.Diff(first, encode(false)))
	assert.Empty(t, cmp.Diff(first, encode(true)), "method declaration order does not matter")
}

func TestReadTagOrder(t *testing.T) {
	cls := &service.Class{
		Name: "Tagged",
		Path: "/tagged",
		Tags: []openapi.Tag{{Name: "A"}, {Name: "B"}},
		Definition: &service.Definition{
			Tags: []openapi.Tag{{Name: "B", Description: "from definition"}, {Name: "C"}},
		},
		Methods: []*service.Method{{Name: "get", Verb: "GET"}},
	}

	doc, err := New(nil, Config{}).Read(cls)
	require.NoError(t, err)

	require.Len(t, doc.Tags, 3)
	assert.Equal(t, "B", doc.Tags[0].Name)
	assert.Equal(t, "from definition", doc.Tags[0].Description)
	assert.Equal(t, "C", doc.Tags[1].Name)
	assert.Equal(t, "A", doc.Tags[2].Name)

	assert.Equal(t, []string{"A", "B"}, doc.Paths["/tagged"].Get.Tags)
}

func TestReadMergesPathItems(t *testing.T) {
	readers := &service.Class{
		Name:    "WidgetReader",
		Path:    "/widgets",
		Methods: []*service.Method{{Name: "get", Verb: "GET", Path: "/{id}", Params: []service.Param{idParam()}}},
	}
	writers := &service.Class{
		Name:    "WidgetWriter",
		Path:    "/widgets",
		Methods: []*service.Method{{Name: "update", Verb: "POST", Path: "{id}/", Params: []service.Param{idParam()}}},
	}

	r := New(nil, Config{})
	_, err := r.Read(readers)
	require.NoError(t, err)
	doc, err := r.Read(writers)
	require.NoError(t, err)

	require.Len(t, doc.Paths, 1)
	item := doc.Paths["/widgets/{id}"]
	require.NotNil(t, item)
	require.NotNil(t, item.Get)
	require.NotNil(t, item.Post)
	assert.Equal(t, "get", item.Get.OperationID)
	assert.Equal(t, "update", item.Post.OperationID)
}

func TestReadCycles(t *testing.T) {
	x := &service.Class{Name: "X", Path: "/x"}
	y := &service.Class{Name: "Y"}
	x.Methods = []*service.Method{
		{Name: "list", Verb: "GET"},
		{Name: "y", Path: "/y", Returns: service.ClassType(y)},
	}
	y.Methods = []*service.Method{
		{Name: "get", Verb: "GET"},
		{Name: "x", Path: "/x", Returns: service.ClassType(x)},
	}

	logger, logs := newTestLogger()
	doc, err := New(nil, Config{Logger: logger}).Read(x)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"/x get":   "list",
		"/x/y get": "get",
	}, operationIDs(doc))
	assert.Contains(t, logs.String(), "sub-resource already on the current branch")

	t.Run("self reference", func(t *testing.T) {
		self := &service.Class{Name: "Self", Path: "/self"}
		self.Methods = []*service.Method{
			{Name: "get", Verb: "GET"},
			{Name: "again", Path: "/again", Returns: service.ClassType(self)},
		}
		doc, err := New(nil, Config{}).Read(self)
		require.NoError(t, err)
		assert.Len(t, doc.Paths, 1)
	})

	t.Run("shared target on separate branches", func(t *testing.T) {
		z := &service.Class{Name: "Z", Methods: []*service.Method{{Name: "get", Verb: "GET"}}}
		root := &service.Class{
			Name: "Root",
			Methods: []*service.Method{
				{Name: "a", Path: "/a", Returns: service.ClassType(z)},
				{Name: "b", Path: "/b", Returns: service.ClassType(z)},
			},
		}
		doc, err := New(nil, Config{}).Read(root)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"/a get": "get",
			"/b get": "get_1",
		}, operationIDs(doc))
	})
}

func TestReadFormParameters(t *testing.T) {
	required := true
	cls := &service.Class{
		Name: "Forms",
		Path: "/forms",
		Methods: []*service.Method{{
			Name: "submit",
			Verb: "POST",
			Params: []service.Param{
				{Name: "a", Type: service.Named("string"), In: service.InForm, Meta: &service.ParamMeta{Required: &required, Description: "first"}},
				{Name: "b", Type: service.Named("int"), In: service.InForm},
			},
		}},
	}

	doc, err := New(nil, Config{}).Read(cls)
	require.NoError(t, err)

	op := doc.Paths["/forms"].Post
	require.NotNil(t, op)
	assert.Empty(t, op.Parameters)
	require.NotNil(t, op.RequestBody)
	require.Len(t, op.RequestBody.Content, 1)

	media := op.RequestBody.Content["application/x-www-form-urlencoded"]
	require.NotNil(t, media)
	schema := media.Schema
	assert.Equal(t, openapi.TypeString("object"), schema.Type)
	assert.Equal(t, []string{"a", "b"}, schema.Properties.Keys())
	assert.Equal(t, []string{"a"}, schema.Required)
	assert.Equal(t, "first", schema.Properties.Get("a").Description)
	assert.Equal(t, openapi.TypeString("integer"), schema.Properties.Get("b").Type)
	assert.Nil(t, media.Encoding)

	t.Run("consumes overrides the form media type", func(t *testing.T) {
		cls.Methods[0].Consumes = []string{"multipart/form-data"}
		doc, err := New(nil, Config{}).Read(cls)
		require.NoError(t, err)
		assert.Contains(t, doc.Paths["/forms"].Post.RequestBody.Content, "multipart/form-data")
	})
}

func TestReadHidden(t *testing.T) {
	t.Run("hidden class", func(t *testing.T) {
		cls := &service.Class{
			Name:       "Secret",
			Path:       "/secret",
			Hidden:     true,
			Tags:       []openapi.Tag{{Name: "secret"}},
			Definition: &service.Definition{Info: openapi.Info{Title: "Secret"}},
			Methods:    []*service.Method{{Name: "get", Verb: "GET"}},
		}
		doc, err := New(nil, Config{}).Read(cls)
		require.NoError(t, err)
		assert.Empty(t, doc.Paths)
		assert.Empty(t, doc.Tags)
		assert.True(t, doc.Info.IsZero())
		assert.Nil(t, doc.Components)
	})

	t.Run("hidden methods", func(t *testing.T) {
		cls := &service.Class{
			Name: "Mixed",
			Path: "/mixed",
			Methods: []*service.Method{
				{Name: "get", Verb: "GET"},
				{Name: "remove", Verb: "DELETE", Hidden: true},
				{Name: "update", Verb: "PUT", Meta: &service.OperationMeta{Hidden: true}},
			},
		}
		doc, err := New(nil, Config{}).Read(cls)
		require.NoError(t, err)
		item := doc.Paths["/mixed"]
		require.NotNil(t, item)
		assert.NotNil(t, item.Get)
		assert.Nil(t, item.Delete)
		assert.Nil(t, item.Put)
	})

	t.Run("hidden sub-resource", func(t *testing.T) {
		inner := &service.Class{Name: "Inner", Hidden: true, Methods: []*service.Method{{Name: "get", Verb: "GET"}}}
		outer := &service.Class{
			Name:    "Outer",
			Path:    "/outer",
			Methods: []*service.Method{{Name: "inner", Path: "/inner", Returns: service.ClassType(inner)}},
		}
		doc, err := New(nil, Config{}).Read(outer)
		require.NoError(t, err)
		assert.Empty(t, doc.Paths)
	})

	t.Run("nil class", func(t *testing.T) {
		doc, err := New(nil, Config{}).Read(nil)
		require.NoError(t, err)
		assert.Empty(t, doc.Paths)
	})
}

func TestReadComponentsSetOnce(t *testing.T) {
	existing := &openapi.Components{
		Schemas: map[string]*openapi.Schema{"Existing": {Type: openapi.TypeString("object")}},
	}
	doc := openapi.NewDocument(openapi.Info{Title: "Preset"})
	doc.Components = existing

	cls := &service.Class{
		Name:            "Widgets",
		Path:            "/widgets",
		SecuritySchemes: []service.NamedSecurityScheme{{Key: "basic", Scheme: &openapi.SecurityScheme{Type: "http", Scheme: "basic"}}},
		Methods:         []*service.Method{{Name: "get", Verb: "GET", Returns: service.GoType(widget{})}},
	}

	out, err := New(doc, Config{}).Read(cls)
	require.NoError(t, err)

	assert.Same(t, existing, out.Components)
	assert.Equal(t, []string{"Existing"}, keys(out.Components.Schemas))
	assert.Empty(t, out.Components.SecuritySchemes)
	assert.Equal(t, "Preset", out.Info.Title)

	t.Run("components attach to a fresh document", func(t *testing.T) {
		out, err := New(nil, Config{}).Read(cls)
		require.NoError(t, err)
		require.NotNil(t, out.Components)
		assert.Contains(t, out.Components.Schemas, "widget")
		assert.Contains(t, out.Components.SecuritySchemes, "basic")
	})
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func TestReadDefinitionWriteOnce(t *testing.T) {
	first := &service.Class{
		Name: "First",
		Path: "/first",
		Definition: &service.Definition{
			Info:         openapi.Info{Title: "First", Version: "1"},
			Servers:      []openapi.Server{{URL: "https://first.example.com"}},
			ExternalDocs: &openapi.ExternalDocs{URL: "https://docs.example.com/first"},
		},
		Methods: []*service.Method{{Name: "get", Verb: "GET"}},
	}
	second := &service.Class{
		Name: "Second",
		Path: "/second",
		Definition: &service.Definition{
			Info:         openapi.Info{Title: "Second", Version: "2"},
			Servers:      []openapi.Server{{URL: "https://second.example.com"}},
			Security:     []openapi.SecurityRequirement{{"basic": {}}},
			ExternalDocs: &openapi.ExternalDocs{URL: "https://docs.example.com/second"},
		},
		Methods: []*service.Method{{Name: "get", Verb: "GET"}},
	}

	r := New(nil, Config{})
	_, err := r.Read(first)
	require.NoError(t, err)
	doc, err := r.Read(second)
	require.NoError(t, err)

	assert.Equal(t, "First", doc.Info.Title)
	assert.Equal(t, "https://first.example.com", doc.Servers[0].URL)
	assert.Equal(t, "https://docs.example.com/first", doc.ExternalDocs.URL)
	assert.Equal(t, []openapi.SecurityRequirement{{"basic": {}}}, doc.Security)
}

func TestReadSecuritySchemesFirstWins(t *testing.T) {
	a := &service.Class{
		Name:            "A",
		Path:            "/a",
		SecuritySchemes: []service.NamedSecurityScheme{{Key: "auth", Scheme: &openapi.SecurityScheme{Type: "http", Scheme: "basic"}}},
		Methods:         []*service.Method{{Name: "get", Verb: "GET"}},
	}
	b := &service.Class{
		Name:            "B",
		Path:            "/b",
		SecuritySchemes: []service.NamedSecurityScheme{{Key: "auth", Scheme: &openapi.SecurityScheme{Type: "apiKey", Name: "X-Key", In: "header"}}},
		Methods:         []*service.Method{{Name: "get", Verb: "GET"}},
	}

	r := New(nil, Config{})
	_, err := r.Read(a)
	require.NoError(t, err)
	doc, err := r.Read(b)
	require.NoError(t, err)

	assert.Equal(t, "basic", doc.Components.SecuritySchemes["auth"].Scheme)
}

func TestReadOperationIDs(t *testing.T) {
	t.Run("explicit ids and suffixes", func(t *testing.T) {
		cls := &service.Class{
			Name: "Widgets",
			Path: "/widgets",
			Methods: []*service.Method{
				{Name: "a", Verb: "GET", Meta: &service.OperationMeta{ID: "fetch"}},
				{Name: "b", Verb: "PUT", Meta: &service.OperationMeta{ID: "fetch"}},
				{Name: "c", Verb: "POST", Meta: &service.OperationMeta{ID: "fetch"}},
			},
		}
		doc, err := New(nil, Config{}).Read(cls)
		require.NoError(t, err)
		item := doc.Paths["/widgets"]
		assert.Equal(t, "fetch", item.Get.OperationID)
		assert.Equal(t, "fetch_1", item.Put.OperationID)
		assert.Equal(t, "fetch_2", item.Post.OperationID)
	})

	t.Run("re-reading keeps ids", func(t *testing.T) {
		cls := &service.Class{Name: "W", Path: "/w", Methods: []*service.Method{{Name: "get", Verb: "GET"}}}
		r := New(nil, Config{})
		_, err := r.Read(cls)
		require.NoError(t, err)
		doc, err := r.Read(cls)
		require.NoError(t, err)
		assert.Equal(t, "get", doc.Paths["/w"].Get.OperationID)
	})

	t.Run("seeded from the document", func(t *testing.T) {
		doc := openapi.NewDocument(openapi.Info{})
		doc.AddOperation("/legacy", "get", &openapi.Operation{OperationID: "get"})

		cls := &service.Class{Name: "W", Path: "/w", Methods: []*service.Method{{Name: "get", Verb: "GET"}}}
		out, err := New(doc, Config{}).Read(cls)
		require.NoError(t, err)
		assert.Equal(t, "get_1", out.Paths["/w"].Get.OperationID)
		assert.Equal(t, "get", out.Paths["/legacy"].Get.OperationID)
	})
}

func TestReadInheritance(t *testing.T) {
	base := &service.Class{
		Name: "Base",
		Methods: []*service.Method{
			{Name: "get", Verb: "GET", Path: "/base"},
			{Name: "list", Verb: "GET", Path: "/list"},
		},
	}
	child := &service.Class{
		Name:    "Child",
		Path:    "/child",
		Super:   base,
		Methods: []*service.Method{{Name: "get", Verb: "GET", Path: "/own"}},
	}

	doc, err := New(nil, Config{}).Read(child)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"/child/own get":  "get",
		"/child/list get": "list",
	}, operationIDs(doc))
}

func TestReadDescriptorRouting(t *testing.T) {
	calls := 0
	cls := &service.Class{
		Name: "WidgetService",
		Routes: service.DescriptorFunc(func() ([]service.RouteFact, error) {
			calls++
			return []service.RouteFact{
				{Call: "getWidget", Verb: "GET", Pattern: "/api/widgets/:id?fields"},
				{Call: "createWidget", Verb: "POST", Pattern: "/api/widgets"},
			}, nil
		}),
		Methods: []*service.Method{
			{
				Name:    "getWidget",
				Params:  []service.Param{idParam()},
				Returns: service.Named("ServiceCall", service.Named("NotUsed"), service.GoType(widget{})),
			},
			{
				Name:    "createWidget",
				Returns: service.Named("ServiceCall", service.GoType(widget{}), service.Named("Done")),
			},
			{Name: "helper", Returns: service.Named("string")},
		},
	}

	r := New(nil, Config{})
	doc, err := r.Read(cls)
	require.NoError(t, err)
	_, err = r.Read(cls)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	assert.Equal(t, map[string]string{
		"/api/widgets/{id} get": "getWidget",
		"/api/widgets post":     "createWidget",
	}, operationIDs(doc))

	get := doc.Paths["/api/widgets/{id}"].Get
	assert.Nil(t, get.RequestBody)
	assert.Equal(t, "#/components/schemas/widget", get.Responses["default"].Content["*/*"].Schema.Ref)

	create := doc.Paths["/api/widgets"].Post
	require.NotNil(t, create.RequestBody)
	assert.Equal(t, "#/components/schemas/widget", create.RequestBody.Content["*/*"].Schema.Ref)
	assert.Equal(t, map[string]*openapi.Response{"default": {Description: "default response"}}, create.Responses)
}

func TestReadCallWrapperArity(t *testing.T) {
	logger, logs := newTestLogger()
	cls := &service.Class{
		Name:    "Broken",
		Path:    "/broken",
		Methods: []*service.Method{{Name: "get", Verb: "GET", Returns: service.Named("ServiceCall", service.GoType(widget{}))}},
	}

	doc, err := New(nil, Config{Logger: logger}).Read(cls)
	require.NoError(t, err)

	op := doc.Paths["/broken"].Get
	assert.Nil(t, op.RequestBody)
	assert.Equal(t, map[string]*openapi.Response{"default": {Description: "default response"}}, op.Responses)
	assert.Contains(t, logs.String(), "unexpected call wrapper definition")
}

func TestReadStructuralError(t *testing.T) {
	boom := errors.New("no descriptor")
	broken := &service.Class{
		Name:    "Broken",
		Routes:  service.DescriptorFunc(func() ([]service.RouteFact, error) { return nil, boom }),
		Methods: []*service.Method{{Name: "get"}},
	}
	root := &service.Class{
		Name: "Root",
		Path: "/root",
		Methods: []*service.Method{
			{Name: "a", Verb: "GET"},
			{Name: "b", Path: "/broken", Returns: service.ClassType(broken)},
		},
	}

	doc, err := New(nil, Config{}).Read(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructural)
	assert.ErrorIs(t, err, boom)

	require.NotNil(t, doc)
	assert.NotNil(t, doc.Paths["/root"].Get, "operations resolved before the failure are kept")
}

func TestReadGenericSubResource(t *testing.T) {
	items := &service.Class{
		Name:       "Items",
		TypeParams: []string{"T"},
		Methods: []*service.Method{
			{Name: "list", Verb: "GET", Returns: service.Named("list", service.Var("T"))},
			{Name: "add", Verb: "POST", Params: []service.Param{
				{Name: "item", Type: service.Var("T"), Body: &service.BodyMeta{}},
			}},
		},
	}

	t.Run("bound", func(t *testing.T) {
		root := &service.Class{
			Name:    "Root",
			Path:    "/root",
			Methods: []*service.Method{{Name: "widgets", Path: "/widgets", Returns: service.ClassType(items, service.GoType(widget{}))}},
		}
		doc, err := New(nil, Config{}).Read(root)
		require.NoError(t, err)

		item := doc.Paths["/root/widgets"]
		require.NotNil(t, item)
		list := item.Get.Responses["default"].Content["*/*"].Schema
		assert.Equal(t, "#/components/schemas/widget", list.Items.Ref)
		assert.Equal(t, "#/components/schemas/widget", item.Post.RequestBody.Content["*/*"].Schema.Ref)
	})

	t.Run("argument count mismatch", func(t *testing.T) {
		logger, logs := newTestLogger()
		root := &service.Class{
			Name:    "Root",
			Path:    "/root",
			Methods: []*service.Method{{Name: "widgets", Path: "/widgets", Returns: service.ClassType(items)}},
		}
		doc, err := New(nil, Config{Logger: logger}).Read(root)
		require.NoError(t, err)

		item := doc.Paths["/root/widgets"]
		require.NotNil(t, item)
		assert.Nil(t, item.Post.RequestBody)
		assert.Equal(t, "default response", item.Get.Responses["default"].Description)
		assert.Nil(t, item.Get.Responses["default"].Content)
		assert.Contains(t, logs.String(), "unexpected generic argument count")
		assert.Contains(t, logs.String(), "dropping return type with unresolvable type variable")
	})
}

func TestReadSubResourceInheritsPointer(t *testing.T) {
	inner := &service.Class{
		Name:    "Inner",
		Methods: []*service.Method{{Name: "get", Verb: "GET"}},
	}
	outer := &service.Class{
		Name: "Outer",
		Path: "/outer",
		Methods: []*service.Method{{
			Name: "inner",
			Path: "/inner",
			Params: []service.Param{
				{Name: "X-Trace", Type: service.Named("string"), In: service.InHeader},
				{Name: "payload", Type: service.GoType(widget{}), Body: &service.BodyMeta{Description: "shared"}},
			},
			Returns: service.ClassType(inner),
			Meta: &service.OperationMeta{Responses: []service.Response{
				{Status: "404"},
			}},
		}},
	}

	doc, err := New(nil, Config{}).Read(outer)
	require.NoError(t, err)

	op := doc.Paths["/outer/inner"].Get
	require.NotNil(t, op)
	require.Len(t, op.Parameters, 1)
	assert.Equal(t, "X-Trace", op.Parameters[0].Name)
	require.NotNil(t, op.RequestBody)
	assert.Equal(t, "shared", op.RequestBody.Description)
	assert.Equal(t, map[string]*openapi.Response{"404": {Description: "Not Found"}}, op.Responses)
}

func TestReadSubResourceSiblingsIndependent(t *testing.T) {
	inner := &service.Class{
		Name: "Inner",
		Methods: []*service.Method{
			{Name: "a", Verb: "GET", Path: "/a"},
			{Name: "b", Verb: "GET", Path: "/b"},
		},
	}
	outer := &service.Class{
		Name: "Outer",
		Path: "/o",
		Methods: []*service.Method{{
			Name: "inner",
			Path: "/i",
			Params: []service.Param{
				{Name: "X-Trace", Type: service.Named("string"), In: service.InHeader},
				{Name: "payload", Type: service.GoType(widget{}), Body: &service.BodyMeta{Description: "shared"}},
			},
			Returns: service.ClassType(inner),
			Meta: &service.OperationMeta{Responses: []service.Response{
				{Status: "404"},
			}},
		}},
	}
	mutate := ExtensionFunc(func(op *openapi.Operation, m *service.Method, next Chain) {
		if m.Name == "a" {
			op.Responses["500"] = &openapi.Response{Description: "boom"}
			op.Responses["404"].Description = "changed"
			op.RequestBody.Description = "changed"
			op.RequestBody.Content["text/plain"] = &openapi.MediaType{}
			op.Parameters[0].Description = "changed"
		}
		next.Decorate(op, m)
	})

	doc, err := New(nil, Config{Extensions: Chain{mutate}}).Read(outer)
	require.NoError(t, err)

	a := doc.Paths["/o/i/a"].Get
	require.NotNil(t, a)
	assert.Contains(t, a.Responses, "500")
	assert.Equal(t, "changed", a.RequestBody.Description)
	assert.Equal(t, "changed", a.Parameters[0].Description)

	b := doc.Paths["/o/i/b"].Get
	require.NotNil(t, b)
	assert.Equal(t, map[string]*openapi.Response{"404": {Description: "Not Found"}}, b.Responses)
	require.NotNil(t, b.RequestBody)
	assert.Equal(t, "shared", b.RequestBody.Description)
	assert.NotContains(t, b.RequestBody.Content, "text/plain")
	require.Len(t, b.Parameters, 1)
	assert.Empty(t, b.Parameters[0].Description)
}

func TestReadOperationMetadata(t *testing.T) {
	cls := &service.Class{
		Name:         "Widgets",
		Path:         "/widgets",
		Deprecated:   true,
		Tags:         []openapi.Tag{{Name: "widgets"}},
		Security:     []openapi.SecurityRequirement{{"basic": {}}},
		ExternalDocs: &openapi.ExternalDocs{URL: "https://docs.example.com"},
		Servers:      []openapi.Server{{URL: "https://api.example.com"}},
		Produces:     []string{"application/json"},
		Responses: []service.Response{
			{Status: "500", Description: "Server exploded"},
			{Status: "404"},
		},
		Methods: []*service.Method{
			{
				Name: "get",
				Verb: "GET",
				Path: "/{id}",
				Params: []service.Param{
					{Name: "id", Type: service.Named("string"), In: service.InPath},
					{Name: "ctx", Type: service.Named("context.Context")},
					{Name: "limit", Type: service.Named("int"), In: service.InQuery, Default: "10"},
					{Name: "session", Type: service.Named("string"), In: service.InCookie, Injected: true},
				},
				Returns: service.GoType(widget{}),
				Meta: &service.OperationMeta{
					Summary:     "Get a widget",
					Description: "Returns one widget.",
					Tags:        []string{"read", "widgets"},
					Security:    []openapi.SecurityRequirement{{"token": {"read"}}},
					Responses: []service.Response{
						{Status: "200", Type: service.GoType(widget{}), ContentType: "application/vnd.widget+json"},
						{Status: "404", Description: "No such widget"},
					},
				},
			},
		},
	}

	doc, err := New(nil, Config{}).Read(cls)
	require.NoError(t, err)
	op := doc.Paths["/widgets/{id}"].Get
	require.NotNil(t, op)

	assert.Equal(t, "Get a widget", op.Summary)
	assert.Equal(t, "Returns one widget.", op.Description)
	assert.Equal(t, []string{"widgets", "read"}, op.Tags)
	assert.True(t, op.Deprecated)
	assert.Equal(t, []openapi.SecurityRequirement{{"token": {"read"}}}, op.Security)
	assert.Equal(t, "https://docs.example.com", op.ExternalDocs.URL)
	assert.Equal(t, "https://api.example.com", op.Servers[0].URL)

	t.Run("parameters", func(t *testing.T) {
		require.Len(t, op.Parameters, 2)
		assert.Equal(t, "id", op.Parameters[0].Name)
		assert.True(t, op.Parameters[0].Required)
		assert.Equal(t, "limit", op.Parameters[1].Name)
		assert.Equal(t, int64(10), op.Parameters[1].Schema.Default)
	})

	t.Run("responses", func(t *testing.T) {
		require.Len(t, op.Responses, 3)
		assert.Equal(t, "OK", op.Responses["200"].Description)
		assert.Contains(t, op.Responses["200"].Content, "application/vnd.widget+json")
		assert.Equal(t, "No such widget", op.Responses["404"].Description)
		assert.Equal(t, "Server exploded", op.Responses["500"].Description)
		assert.NotContains(t, op.Responses, "default")
	})
}

func TestReadPathPatterns(t *testing.T) {
	cls := &service.Class{
		Name: "Widgets",
		Path: "/widgets",
		Methods: []*service.Method{{
			Name:   "get",
			Verb:   "GET",
			Path:   "/{id:[0-9]+}",
			Params: []service.Param{{Name: "id", Type: service.Named("long"), In: service.InPath}},
		}},
	}

	doc, err := New(nil, Config{}).Read(cls)
	require.NoError(t, err)

	op := doc.Paths["/widgets/{id}"].Get
	require.NotNil(t, op)
	require.Len(t, op.Parameters, 1)
	assert.Equal(t, "[0-9]+", op.Parameters[0].Schema.Pattern)
	assert.Equal(t, "int64", op.Parameters[0].Schema.Format)
}

func TestReadFieldParameters(t *testing.T) {
	cls := &service.Class{
		Name: "Tenants",
		Path: "/tenants/{tenant}",
		Fields: []service.Param{
			{Name: "tenant", Type: service.Named("string"), In: service.InPath},
			{Name: "X-Request-ID", Type: service.Named("uuid"), In: service.InHeader},
		},
		Methods: []*service.Method{{
			Name:   "list",
			Verb:   "GET",
			Path:   "/users",
			Params: []service.Param{{Name: "tenant", Type: service.Named("string"), In: service.InPath}},
		}},
	}

	doc, err := New(nil, Config{}).Read(cls)
	require.NoError(t, err)

	op := doc.Paths["/tenants/{tenant}/users"].Get
	require.NotNil(t, op)
	require.Len(t, op.Parameters, 2)
	assert.Equal(t, "tenant", op.Parameters[0].Name)
	assert.Equal(t, "X-Request-ID", op.Parameters[1].Name)
	assert.Equal(t, "uuid", op.Parameters[1].Schema.Format)
}

func TestReadExtensions(t *testing.T) {
	var seen []string
	record := ExtensionFunc(func(op *openapi.Operation, m *service.Method, next Chain) {
		seen = append(seen, m.Name)
		next.Decorate(op, m)
	})
	vendor := ExtensionFunc(func(op *openapi.Operation, _ *service.Method, _ Chain) {
		op.Summary = "decorated " + op.OperationID
	})

	inner := &service.Class{Name: "Inner", Methods: []*service.Method{{Name: "nested", Verb: "GET"}}}
	cls := &service.Class{
		Name: "Widgets",
		Path: "/widgets",
		Methods: []*service.Method{
			{Name: "get", Verb: "GET"},
			{Name: "put", Verb: "PUT"},
			{Name: "sub", Path: "/sub", Returns: service.ClassType(inner)},
		},
	}

	doc, err := New(nil, Config{Extensions: Chain{record, vendor}}).Read(cls)
	require.NoError(t, err)

	assert.Equal(t, []string{"get", "put", "nested"}, seen)
	assert.Equal(t, "decorated get", doc.Paths["/widgets"].Get.Summary)
	assert.Equal(t, "decorated nested", doc.Paths["/widgets/sub"].Get.Summary)

	t.Run("chain can stop early", func(t *testing.T) {
		seen = nil
		stop := ExtensionFunc(func(*openapi.Operation, *service.Method, Chain) {})
		_, err := New(nil, Config{Extensions: Chain{stop, record}}).Read(cls)
		require.NoError(t, err)
		assert.Empty(t, seen)
	})
}

func TestReadFolding(t *testing.T) {
	a := &service.Class{Name: "A", Path: "/a", Methods: []*service.Method{{Name: "get", Verb: "GET", Returns: service.GoType(widget{})}}}
	b := &service.Class{Name: "B", Path: "/b", Methods: []*service.Method{{Name: "get", Verb: "GET", Returns: service.Named("string")}}}

	r := New(nil, Config{})
	_, err := r.Read(a)
	require.NoError(t, err)
	_, err = r.Read(b)
	require.NoError(t, err)

	doc := r.Document()
	assert.Len(t, doc.Paths, 2)
	assert.Equal(t, "get_1", doc.Paths["/b"].Get.OperationID)
	assert.Contains(t, doc.Components.Schemas, "widget")
}

func TestReadUnsupportedVerb(t *testing.T) {
	logger, logs := newTestLogger()
	cls := &service.Class{
		Name:    "Odd",
		Path:    "/odd",
		Methods: []*service.Method{{Name: "fetch", Verb: "FETCH"}},
	}

	doc, err := New(nil, Config{Logger: logger}).Read(cls)
	require.NoError(t, err)
	assert.Empty(t, doc.Paths)
	assert.Contains(t, logs.String(), "dropping operation with unsupported verb")

	t.Run("dropped operation keeps no id", func(t *testing.T) {
		cls := &service.Class{
			Name: "Loader",
			Path: "/load",
			Methods: []*service.Method{
				{Name: "a", Verb: "FETCH", Meta: &service.OperationMeta{ID: "load"}},
				{Name: "b", Verb: "GET", Meta: &service.OperationMeta{ID: "load"}},
			},
		}
		doc, err := New(nil, Config{Logger: logger}).Read(cls)
		require.NoError(t, err)
		require.NotNil(t, doc.Paths["/load"].Get)
		assert.Equal(t, "load", doc.Paths["/load"].Get.OperationID)
	})
}
