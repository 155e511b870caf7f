package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

type MockSchemaClient struct {
	CreatedClass    *models.Class
	ExistingClass   *models.Class
	AddedProperties []*models.Property
}

func (m *MockSchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	return m.ExistingClass != nil, nil
}

func (m *MockSchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	m.CreatedClass = class
	return nil
}

func (m *MockSchemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return m.ExistingClass, nil
}

func (m *MockSchemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	m.AddedProperties = append(m.AddedProperties, property)
	return nil
}

func TestEnsureSchema_CreatesClass(t *testing.T) {
	client := &MockSchemaClient{}
	require.NoError(t, EnsureSchema(context.Background(), client))
	require.NotNil(t, client.CreatedClass)

	assert.Equal(t, ClassName, client.CreatedClass.Class)
	assert.Equal(t, "none", client.CreatedClass.Vectorizer)

	names := make(map[string]string)
	for _, p := range client.CreatedClass.Properties {
		require.NotEmpty(t, p.DataType)
		names[p.Name] = p.DataType[0]
	}
	assert.Equal(t, "text", names["content"])
	assert.Equal(t, "int", names["documentId"])
	assert.Equal(t, "int", names["chunkIndex"])
	assert.Equal(t, "string", names["filename"])
}

func TestEnsureSchema_BackfillsMissingProperties(t *testing.T) {
	client := &MockSchemaClient{
		ExistingClass: &models.Class{
			Class: ClassName,
			Properties: []*models.Property{
				{Name: "content", DataType: []string{"text"}},
				{Name: "documentId", DataType: []string{"int"}},
			},
		},
	}

	require.NoError(t, EnsureSchema(context.Background(), client))
	assert.Nil(t, client.CreatedClass)

	added := make([]string, 0, len(client.AddedProperties))
	for _, p := range client.AddedProperties {
		added = append(added, p.Name)
	}
	assert.ElementsMatch(t, []string{"chunkIndex", "filename"}, added)
}

func TestEnsureSchema_NoChangesWhenComplete(t *testing.T) {
	client := &MockSchemaClient{
		ExistingClass: &models.Class{
			Class: ClassName,
			Properties: []*models.Property{
				{Name: "content", DataType: []string{"text"}},
				{Name: "documentId", DataType: []string{"int"}},
				{Name: "chunkIndex", DataType: []string{"int"}},
				{Name: "filename", DataType: []string{"string"}},
			},
		},
	}

	require.NoError(t, EnsureSchema(context.Background(), client))
	assert.Empty(t, client.AddedProperties)
}
