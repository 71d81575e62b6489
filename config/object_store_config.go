package config

// parameters for the S3-compatible object store holding source and translated
// archives
type objectStoreConfig struct {
	// host:port of the S3-compatible endpoint (no scheme)
	Endpoint string `yaml:"endpoint"`
	// the region passed to the client
	Region string `yaml:"region"`
	// credentials (fall back to the AWS environment/credential chain when
	// empty)
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	// whether to use TLS
	UseSSL bool `yaml:"use_ssl"`
	// the bucket in which archives are stored
	Bucket string `yaml:"bucket"`
	// key prefixes for submitted and translated archives
	UploadPrefix string `yaml:"upload_prefix"`
	OutputPrefix string `yaml:"output_prefix"`
	// lifetime of pre-signed upload/download URLs (seconds)
	URLTTL int `yaml:"url_ttl"`
}

func defaultObjectStoreConfig() objectStoreConfig {
	return objectStoreConfig{
		Region:       "us-east-1",
		UseSSL:       true,
		Bucket:       "translation-tasks",
		UploadPrefix: "uploads",
		OutputPrefix: "outputs",
		URLTTL:       3600,
	}
}
